package config

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/torfstack/bust/internal/bust"
)

var (
	inputFile = os.Stdin
)

func guidedInitialization(config *Config) error {
	scanner := bufio.NewScanner(inputFile)

	input, err := ask(scanner, fmt.Sprintf("Enter source directory [default: %s]", config.SrcDir))
	if err != nil {
		return err
	}
	if input != "" {
		config.SrcDir = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter output directory [default: %s]", config.OutDir))
	if err != nil {
		return err
	}
	if input != "" {
		config.OutDir = input
	}

	opts := config.Options()
	input, err = ask(scanner, fmt.Sprintf("Enter hash type (%s) [default: %s]", strings.Join(bust.HashTypes(), ", "), opts.HashType))
	if err != nil {
		return err
	}
	if input != "" {
		if !slices.Contains(bust.HashTypes(), input) {
			return fmt.Errorf("%w: '%s'", bust.ErrUnsupportedHash, input)
		}
		config.HashType = input
	}

	input, err = ask(scanner, "Enter hash length, 0 keeps the full hash [default: 0]")
	if err != nil {
		return err
	}
	if input != "" {
		n, err := strconv.Atoi(input)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid hash length '%s'", input)
		}
		config.HashLength = n
	}

	return nil
}

func ask(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read user input: %w", err)
		}
		return "", nil // EOF or closed input
	}
	return strings.TrimSpace(scanner.Text()), nil
}
