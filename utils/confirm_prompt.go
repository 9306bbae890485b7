package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"solsnap/constants/lipgloss"
)

// ConfirmPrompt asks a yes/no question and returns the answer. Anything
// other than y/yes counts as no.
func ConfirmPrompt(question string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.BlueSky.Render(fmt.Sprintf("%s [y/N]: ", question)))

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
