package tools

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/mwillems/devassist/errors"
)

const maxPageBytes = 1 << 20 // 1 MiB per fetched page

// BrowserActionTool gives the agent read access to the web. The only
// supported action is "fetch": retrieve a URL and render the page to
// markdown so it survives the transcript.
type BrowserActionTool struct {
	// HTTPClient overrides the default client in tests.
	HTTPClient *http.Client
}

func (t *BrowserActionTool) Name() string { return "browser_action" }
func (t *BrowserActionTool) Description() string {
	return "Performs a browser action. Args: action (string, only 'fetch' is supported), url (string, http or https)."
}
func (t *BrowserActionTool) ArgSpec() *ArgSpec {
	return &ArgSpec{Required: []string{"action", "url"}}
}

func (t *BrowserActionTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	if args["action"] != "fetch" {
		return "", errors.Kindf(errors.KindInvalidArguments,
			"unsupported browser action '%s', only 'fetch' is supported", args["action"])
	}

	target, err := url.Parse(args["url"])
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return "", errors.Kindf(errors.KindInvalidArguments, "'%s' is not an http(s) URL", args["url"])
	}

	client := t.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", errors.Wrapf(err, "could not build request for '%s'", target)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch '%s'", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", errors.New("fetch of '%s' returned status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read response from '%s'", target)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		markdown, err := htmltomarkdown.ConvertString(string(body))
		if err != nil {
			// Conversion failure is not fatal; the raw page is still useful.
			return string(body), nil
		}
		return markdown, nil
	}
	return string(body), nil
}
