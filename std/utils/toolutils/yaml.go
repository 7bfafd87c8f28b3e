package toolutils

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ReadYaml decodes a YAML file into dest. Unknown keys are an error.
func ReadYaml(dest any, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("unable to open configuration file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f, yaml.Strict())
	if err = dec.Decode(dest); err != nil {
		return fmt.Errorf("unable to parse configuration file: %w", err)
	}
	return nil
}

// ReadYamlOrExit is ReadYaml for command line tools: it prints the error and exits with status 3.
func ReadYamlOrExit(dest any, file string) {
	if err := ReadYaml(dest, file); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(3)
	}
}
