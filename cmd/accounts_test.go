package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfig points the --config path at a configuration file whose
// account database lives in a temporary directory.
func useTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "database: " + filepath.Join(dir, "accounts", "multical.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
	return dir
}

func writeTokenFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runAccounts(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newAccountsCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAccountsCommands(t *testing.T) {
	dir := useTempConfig(t)
	work := writeTokenFile(t, dir, "work.json", `{"access_token":"a1","refresh_token":"r1","token_type":"Bearer"}`)
	home := writeTokenFile(t, dir, "home.json", `{"access_token":"a2","token_type":"Bearer"}`)

	out, err := runAccounts(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No accounts configured")

	out, err = runAccounts(t, "add", "jane@work.example", "--token-file", work, "--label", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "Account jane@work.example saved")
	assert.NotContains(t, out, "Warning")

	out, err = runAccounts(t, "add", "jane@home.example", "--token-file", home)
	require.NoError(t, err)
	assert.Contains(t, out, "no refresh token")

	out, err = runAccounts(t, "list")
	require.NoError(t, err)
	assert.Regexp(t, `(?s)1\s+jane@work\.example\s+work.*2\s+jane@home\.example`, out)

	out, err = runAccounts(t, "remove", "jane@work.example")
	require.NoError(t, err)
	assert.Contains(t, out, "Account jane@work.example removed")

	out, err = runAccounts(t, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "jane@work.example")
	assert.Contains(t, out, "jane@home.example")

	_, err = runAccounts(t, "remove", "jane@work.example")
	assert.Error(t, err)
}

func TestAccountsAdd_Errors(t *testing.T) {
	dir := useTempConfig(t)
	empty := writeTokenFile(t, dir, "empty.json", `{"token_type":"Bearer"}`)
	token := writeTokenFile(t, dir, "token.json", `{"access_token":"a1","refresh_token":"r1"}`)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing token file flag", args: []string{"add", "jane@work.example"}},
		{name: "token file does not exist", args: []string{"add", "jane@work.example", "--token-file", filepath.Join(dir, "nope.json")}},
		{name: "token without credentials", args: []string{"add", "jane@work.example", "--token-file", empty}},
		{name: "invalid account ID", args: []string{"add", "jane work", "--token-file", token}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAccounts(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
