package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// apiStub serves canned envelopes keyed by "METHOD path".
func apiStub(t *testing.T, routes map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(common.NewErrorResponse("COMMON_005", "route not found", ""))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(common.NewSuccessResponse(data))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "simmap", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"weights", "standardize", "map", "serve", "worker", "migrate", "reference", "maps", "job", "token", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "log-level", "output", "verbose", "timeout", "server", "token"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestRoot_RejectsUnknownOutputFormat(t *testing.T) {
	_, err := run(t, "version", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestRoot_MissingConfigFile(t *testing.T) {
	_, err := run(t, "version", "--config", "/nonexistent/simmap.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := run(t, "version", "-o", "json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
}

func TestGetCLIContext_WithoutRoot(t *testing.T) {
	_, err := GetCLIContext(&cobra.Command{})
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"ID", "NAME"}, [][]string{{"1", "phenol"}, {"22"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  NAME  ", lines[0])
	assert.Equal(t, "--  ------", lines[1])
	assert.Equal(t, "1   phenol", lines[2])
	assert.Equal(t, "22        ", lines[3])
	assert.Empty(t, FormatTable(nil, nil))
}

func TestTokenCmd(t *testing.T) {
	out, err := run(t, "token", "--subject", "alice", "--secret", "s3cret", "--roles", "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))

	_, err = run(t, "token", "--subject", "alice")
	assert.Error(t, err)
}

func TestMigrateCmd_RequiresPostgres(t *testing.T) {
	_, err := run(t, "migrate", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres is not configured")

	_, err = run(t, "migrate", "force", "abc")
	assert.Error(t, err)
}

//Personal.AI order the ending
