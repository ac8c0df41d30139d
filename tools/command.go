package tools

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/mwillems/devassist/errors"
)

// ExecuteCommandTool runs OS commands. It fails closed: with an empty
// allow-list no command runs at all, and commands are executed argv-style
// with no shell, so there is no metacharacter expansion.
type ExecuteCommandTool struct {
	allowedCommands []string
	maxOutput       int
}

func (t *ExecuteCommandTool) Name() string { return "execute_command" }
func (t *ExecuteCommandTool) Description() string {
	if len(t.allowedCommands) == 0 {
		return "Executes a command. No commands are currently allowed. Args: command (string)."
	}

	allowedList := "Allowed command patterns:\n"
	for _, cmd := range t.allowedCommands {
		allowedList += fmt.Sprintf("- %s\n", cmd)
	}
	return fmt.Sprintf("Executes a command without a shell. Args: command (string).\n%s", allowedList)
}
func (t *ExecuteCommandTool) ArgSpec() *ArgSpec { return &ArgSpec{Required: []string{"command"}} }

func (t *ExecuteCommandTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	command := args["command"]

	allowed, err := isCommandAllowed(command, t.allowedCommands)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", errors.Kindf(errors.KindNotPermitted,
			"command '%s' is not in the list of allowed commands", command)
	}

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", errors.Kindf(errors.KindInvalidArguments, "empty command")
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)

	output, err := cmd.CombinedOutput()
	capped, truncated := capOutput(output, t.maxOutput)
	if err != nil {
		return "", errors.Wrapf(err, "command execution failed. Output:\n%s", capped)
	}

	if truncated {
		capped += fmt.Sprintf("\n[output truncated at %d bytes]", t.maxOutput)
	}
	return capped, nil
}

// isCommandAllowed checks a command against the allow-list (regex patterns).
func isCommandAllowed(command string, allowed []string) (bool, error) {
	if len(strings.Fields(command)) == 0 {
		return false, nil
	}

	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Warn().Str("pattern", pattern).Err(err).Msg("invalid regex in allowed_commands")
			// Fall back to exact comparison when the pattern is not a valid
			// regex.
			if command == pattern {
				return true, nil
			}
			continue
		}
		if re.MatchString(command) {
			return true, nil
		}
	}
	return false, nil
}

func capOutput(output []byte, max int) (string, bool) {
	if max > 0 && len(output) > max {
		cut := max
		// Do not split a multi-byte character at the cap.
		for cut > 0 && !utf8.RuneStart(output[cut]) {
			cut--
		}
		return string(output[:cut]), true
	}
	return string(output), false
}
