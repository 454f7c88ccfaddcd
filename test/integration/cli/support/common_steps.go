package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// binary returns the vtrack executable to run.
func binary() string {
	if bin := os.Getenv("VTRACK_BIN"); bin != "" {
		return bin
	}
	return "vtrack"
}

// iRunCommand runs a vtrack command line. Placeholders {tmp} and
// {sequence:<name>} are substituted first.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] == "vtrack" {
		parts[0] = binary()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// substituteCommandVariables replaces placeholders in command strings.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	for name, path := range testCtx.Sequences {
		command = strings.ReplaceAll(command, "{sequence:"+name+"}", path)
	}
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nStdout: %s\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies stdout contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldMention verifies the failure output contains specific text.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil && testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}

	fullErrorText := testCtx.LastOutput + " " + testCtx.LastStderr
	if testCtx.LastError != nil {
		fullErrorText += " " + testCtx.LastError.Error()
	}

	if !strings.Contains(strings.ToLower(fullErrorText), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, fullErrorText)
	}
	return nil
}

// theLogsShouldContain verifies the structured log output on stderr.
func (testCtx *TestContext) theLogsShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastStderr, expectedText) {
		return fmt.Errorf("logs do not contain '%s'\nActual logs: %s", expectedText, testCtx.LastStderr)
	}
	return nil
}

// outputJSON decodes stdout as a JSON object.
func (testCtx *TestContext) outputJSON() (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &data); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return data, nil
}

// theOutputShouldBeValidJSON verifies stdout is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.outputJSON()
	return err
}

// lookup resolves a dotted path; numeric parts index into arrays.
func lookup(data interface{}, field string) (interface{}, error) {
	current := data
	for _, part := range strings.Split(field, ".") {
		switch v := current.(type) {
		case map[string]interface{}:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found in JSON", field)
			}
			current = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("invalid index '%s' in '%s'", part, field)
			}
			current = v[i]
		default:
			return nil, fmt.Errorf("cannot navigate into '%s' of '%s'", part, field)
		}
	}
	return current, nil
}

// theJSONShouldContain verifies the JSON output contains a field.
func (testCtx *TestContext) theJSONShouldContain(field string) error {
	data, err := testCtx.outputJSON()
	if err != nil {
		return err
	}
	_, err = lookup(data, field)
	return err
}

// theJSONFieldShouldBe compares a JSON field with its expected textual value.
func (testCtx *TestContext) theJSONFieldShouldBe(field, expected string) error {
	data, err := testCtx.outputJSON()
	if err != nil {
		return err
	}
	v, err := lookup(data, field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("field '%s' is %s, expected %s", field, got, expected)
	}
	return nil
}

// theJSONArrayShouldHaveLength verifies the length of a JSON array.
func (testCtx *TestContext) theJSONArrayShouldHaveLength(field string, n int) error {
	data, err := testCtx.outputJSON()
	if err != nil {
		return err
	}
	v, err := lookup(data, field)
	if err != nil {
		return err
	}
	arr, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("field '%s' is not an array", field)
	}
	if len(arr) != n {
		return fmt.Errorf("field '%s' has %d elements, expected %d", field, len(arr), n)
	}
	return nil
}

// everyResultShouldHaveState checks the state of every tracked frame.
func (testCtx *TestContext) everyResultShouldHaveState(state string) error {
	data, err := testCtx.outputJSON()
	if err != nil {
		return err
	}
	results, _ := data["results"].([]interface{})
	if len(results) == 0 {
		return errors.New("no results in output")
	}
	for i, r := range results {
		if got := r.(map[string]interface{})["state"]; got != state {
			return fmt.Errorf("result %d has state %v, expected %s", i, got, state)
		}
	}
	return nil
}

// theFileShouldExist verifies a file exists; relative paths are resolved
// against the scenario's temporary directory.
func (testCtx *TestContext) theFileShouldExist(filename string) error {
	path := testCtx.substituteCommandVariables(filename)
	if !filepath.IsAbs(path) {
		path = testCtx.TempPath(path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	return nil
}

// theFileShouldContain verifies a file contains specific content.
func (testCtx *TestContext) theFileShouldContain(filename, expectedContent string) error {
	if err := testCtx.theFileShouldExist(filename); err != nil {
		return err
	}
	path := testCtx.substituteCommandVariables(filename)
	if !filepath.IsAbs(path) {
		path = testCtx.TempPath(path)
	}
	content, err := os.ReadFile(path) //nolint:gosec // G304: Test file reading with controlled path
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if !strings.Contains(string(content), expectedContent) {
		return fmt.Errorf("file %s does not contain '%s'\nActual content: %s",
			filename, expectedContent, string(content))
	}
	return nil
}

// theEnvironmentVariableIsSetTo sets an environment variable for later commands.
func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, testCtx.substituteCommandVariables(value))
	return nil
}

// RegisterCommonSteps registers all common step definitions.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the JSON array "([^"]*)" should have (\d+) elements?$`, testCtx.theJSONArrayShouldHaveLength)
	sc.Step(`^every result should have state "([^"]*)"$`, testCtx.everyResultShouldHaveState)

	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the logs should contain "([^"]*)"$`, testCtx.theLogsShouldContain)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
