package cmd

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed controllerTemplate.txt
var controllerTemplate string

//go:embed controllerTestTemplate.txt
var controllerTestTemplate string

// inGitRepo returns true if the current working directory is inside a Git
// repository.
func inGitRepo() bool {
	cmd := execCommand("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = filepath.Dir(".")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) == "true"
}

// createControllerFolder creates the folder if it does not already exist.
func createControllerFolder(name string) error {
	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("folder '%s' already exists", name)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%v", err)
	}
	return os.MkdirAll(name, 0755)
}

// generateControllerFile materialises controller.go from the template.
func generateControllerFile(folder string) error {
	return materialiseTemplate(folder, "controller.go", controllerTemplate)
}

// generateControllerTestFile materialises controller_test.go from the
// template.
func generateControllerTestFile(folder string) error {
	return materialiseTemplate(
		folder, "controller_test.go", controllerTestTemplate)
}

func materialiseTemplate(folder, fileName, template string) error {
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		return fmt.Errorf("failed to find folder %s", folder)
	} else if err != nil {
		return fmt.Errorf("%v", err)
	}

	filePath := filepath.Join(folder, fileName)
	packageName := filepath.Base(filepath.Clean(folder))
	typeName := exportedName(packageName)

	content := strings.ReplaceAll(template, "{{packageName}}", packageName)
	content = strings.ReplaceAll(content, "{{typeName}}", typeName)

	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return fmt.Errorf("%v", err)
	}
	return nil
}

// exportedName turns a package name like "searchbox" into "Searchbox".
func exportedName(packageName string) string {
	if packageName == "" {
		return packageName
	}
	return strings.ToUpper(packageName[:1]) + packageName[1:]
}

// execCommand is wrapped for testability.
var execCommand = exec.Command
