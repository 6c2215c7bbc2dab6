package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// BuiltInConfigurationReference names the source used when no configuration file is found.
	BuiltInConfigurationReference         = "built-in defaults"
	explicitConfigurationReadErrorFormat  = "read explicit configuration %s: %w"
	workingDirectoryLookupErrorFormat     = "determine working directory: %w"
	homeEnvironmentVariableName           = "HOME"
	workingDirectoryConfigurationFileName = "testgen.yaml"
	homeConfigurationDirectoryName        = ".testgen"
	homeConfigurationFileName             = "config.yaml"
)

// RootConfigurationSource holds raw configuration bytes and where they came from.
type RootConfigurationSource struct {
	Reference string
	Content   []byte
}

// RootConfigurationLoader finds the configuration file to use.
type RootConfigurationLoader struct {
	workingDirectory string
	homeDirectory    string
	fileReader       func(string) ([]byte, error)
}

func NewRootConfigurationLoader(workingDirectory string, homeDirectory string) RootConfigurationLoader {
	return RootConfigurationLoader{
		workingDirectory: workingDirectory,
		homeDirectory:    homeDirectory,
		fileReader:       os.ReadFile,
	}
}

// NewDefaultRootConfigurationLoader uses the process working directory and HOME.
func NewDefaultRootConfigurationLoader() (RootConfigurationLoader, error) {
	workingDirectory, workingDirectoryErr := os.Getwd()
	if workingDirectoryErr != nil {
		return RootConfigurationLoader{}, fmt.Errorf(workingDirectoryLookupErrorFormat, workingDirectoryErr)
	}
	return NewRootConfigurationLoader(workingDirectory, os.Getenv(homeEnvironmentVariableName)), nil
}

// Load tries the explicit path, ./testgen.yaml and ~/.testgen/config.yaml in
// that order. A missing explicit file falls through; an unreadable one is an
// error. With nothing found the source is empty and LoadRoot applies defaults.
func (loader RootConfigurationLoader) Load(explicitPath string) (RootConfigurationSource, error) {
	for index, candidatePath := range loader.candidatePaths(explicitPath) {
		if candidatePath == "" {
			continue
		}
		content, readErr := loader.fileReader(candidatePath)
		if readErr != nil {
			isExplicit := index == 0
			if isExplicit && !errors.Is(readErr, fs.ErrNotExist) {
				return RootConfigurationSource{}, fmt.Errorf(explicitConfigurationReadErrorFormat, candidatePath, readErr)
			}
			continue
		}
		return RootConfigurationSource{Reference: candidatePath, Content: content}, nil
	}
	return RootConfigurationSource{Reference: BuiltInConfigurationReference}, nil
}

func (loader RootConfigurationLoader) candidatePaths(explicitPath string) []string {
	candidates := []string{explicitPath, "", ""}
	if loader.workingDirectory != "" {
		candidates[1] = filepath.Join(loader.workingDirectory, workingDirectoryConfigurationFileName)
	}
	if loader.homeDirectory != "" {
		candidates[2] = filepath.Join(loader.homeDirectory, homeConfigurationDirectoryName, homeConfigurationFileName)
	}
	return candidates
}
