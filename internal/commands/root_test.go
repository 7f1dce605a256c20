package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-airtable/airtable"
	"github.com/gaborage/go-airtable/config"
)

const (
	testAPIKey   = "keyCLI"
	testBase     = "appCLI"
	testRecordID = "rec001"
	testRecord   = `{"id":"rec001","createdTime":"2024-01-02T03:04:05.000Z","fields":{"Name":"Write docs"}}`
)

type seenRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

type fakeAPI struct {
	*httptest.Server
	mu   sync.Mutex
	seen []seenRequest
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.seen = append(api.seen, seenRequest{
			method: r.Method,
			path:   r.URL.EscapedPath(),
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   string(raw),
		})
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(api.Close)
	return api
}

func (f *fakeAPI) last(t *testing.T) seenRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.seen)
	return f.seen[len(f.seen)-1]
}

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the CLI against api with an environment carrying only the test credentials.
func execute(t *testing.T, api *fakeAPI, stdin string, args ...string) result {
	t.Helper()
	env := []string{"AIRTABLE_API_KEY=" + testAPIKey, "AIRTABLE_BASE=" + testBase, "AIRTABLE_LOG_LEVEL=disabled"}
	opts := &RootOptions{loadOptions: []config.Option{
		config.WithCredentialsFile(""),
		config.WithEnviron(func() []string { return env }),
	}}

	cmd := newRootCommand("test", opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	if api != nil {
		args = append(args, "--endpoint", api.URL)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestGetPrintsRecord(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)

	res := execute(t, api, "", "get", "Tasks", testRecordID)

	require.NoError(t, res.err)
	assert.JSONEq(t, testRecord, res.stdout)
	req := api.last(t)
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/appCLI/Tasks/rec001", req.path)
	assert.Equal(t, "Bearer "+testAPIKey, req.auth)
}

func TestGetWithBaseFlagAndPrettyOutput(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)

	res := execute(t, api, "", "get", "Tasks", testRecordID, "--base", "appOther", "--pretty")

	require.NoError(t, res.err)
	assert.Equal(t, "/appOther/Tasks/rec001", api.last(t).path)
	assert.Contains(t, res.stdout, "\n  \"id\": \"rec001\"")
}

func TestListPassesQuery(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"records":[`+testRecord+`],"offset":"itr1"}`)

	res := execute(t, api, "", "list", "Tasks",
		"--field", "Name", "--formula", "{Done}=0", "--max-records", "5",
		"--sort", "Name:desc", "--view", "Grid")

	require.NoError(t, res.err)
	var page airtable.ListResult[map[string]any]
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &page))
	require.Len(t, page.Records, 1)
	assert.Equal(t, "itr1", page.Offset)

	req := api.last(t)
	assert.Equal(t, "/appCLI/Tasks", req.path)
	assert.Contains(t, req.query, "maxRecords=5")
	assert.Contains(t, req.query, "view=Grid")
	assert.Contains(t, req.query, "sort%5B0%5D%5Bdirection%5D=desc")
}

func TestListRejectsBadSortDirection(t *testing.T) {
	res := execute(t, nil, "", "list", "Tasks", "--sort", "Name:sideways")

	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid sort direction")
}

func TestCreateSendsFields(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)

	res := execute(t, api, "", "create", "Tasks", "--data", `{"Name":"Write docs"}`, "--typecast")

	require.NoError(t, res.err)
	req := api.last(t)
	assert.Equal(t, http.MethodPost, req.method)
	assert.JSONEq(t, `{"fields":{"Name":"Write docs"},"typecast":true}`, req.body)
}

func TestCreateReadsStdin(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)

	res := execute(t, api, `{"Name":"From stdin"}`, "create", "Tasks", "--data", "-")

	require.NoError(t, res.err)
	assert.JSONEq(t, `{"fields":{"Name":"From stdin"}}`, api.last(t).body)
}

func TestCreateRequiresData(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)

	res := execute(t, api, "", "create", "Tasks")

	assert.ErrorIs(t, res.err, errMissingData)
	assert.Empty(t, api.seen)
}

func TestCreateRejectsInvalidJSON(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)

	res := execute(t, api, "", "create", "Tasks", "--data", "{not json")

	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid --data")
}

func TestUpdateMethods(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		method string
	}{
		{name: "merge", args: nil, method: http.MethodPatch},
		{name: "replace", args: []string{"--replace"}, method: http.MethodPut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, http.StatusOK, testRecord)

			args := append([]string{"update", "Tasks", testRecordID, "--data", `{"Name":"x"}`}, tt.args...)
			res := execute(t, api, "", args...)

			require.NoError(t, res.err)
			req := api.last(t)
			assert.Equal(t, tt.method, req.method)
			assert.Equal(t, "/appCLI/Tasks/rec001", req.path)
		})
	}
}

func TestDeletePrintsResult(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"id":"rec001","deleted":true}`)

	res := execute(t, api, "", "delete", "Tasks", testRecordID)

	require.NoError(t, res.err)
	assert.Equal(t, http.MethodDelete, api.last(t).method)
	assert.JSONEq(t, `{"id":"rec001","deleted":true}`, res.stdout)
}

func TestAPIErrorIsReturned(t *testing.T) {
	api := newFakeAPI(t, http.StatusNotFound, `{"error":"NOT_FOUND"}`)

	res := execute(t, api, "", "get", "Tasks", "recMissing")

	require.Error(t, res.err)
	assert.True(t, airtable.IsNotFound(res.err))
	assert.Empty(t, res.stdout)
}

func TestMissingBase(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)
	opts := &RootOptions{loadOptions: []config.Option{
		config.WithCredentialsFile(""),
		config.WithEnviron(func() []string { return []string{"AIRTABLE_API_KEY=" + testAPIKey} }),
	}}
	cmd := newRootCommand("test", opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"get", "Tasks", testRecordID, "--endpoint", api.URL})

	err := cmd.Execute()

	assert.ErrorIs(t, err, airtable.ErrMissingBase)
}

func TestConfigFileFlag(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, testRecord)
	path := filepath.Join(t.TempDir(), "airtable.yaml")
	require.NoError(t, os.WriteFile(path, []byte("airtable:\n  base: appFromFile\n"), 0o600))

	env := []string{"AIRTABLE_API_KEY=" + testAPIKey}
	opts := &RootOptions{loadOptions: []config.Option{
		config.WithCredentialsFile(""),
		config.WithEnviron(func() []string { return env }),
	}}
	cmd := newRootCommand("test", opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"get", "Tasks", testRecordID, "--config", path, "--endpoint", api.URL})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/appFromFile/Tasks/rec001", api.last(t).path)
}

func TestArgumentValidation(t *testing.T) {
	res := execute(t, nil, "", "get", "Tasks")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "accepts 2 arg(s)")
}

func TestVersionCommand(t *testing.T) {
	res := execute(t, nil, "", "version")

	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "airtable version test", lines[0])
	assert.Equal(t, "Built with "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH, lines[1])
}
