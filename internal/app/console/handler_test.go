package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/greenbone/gsa-sub043/internal/config"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
	"github.com/greenbone/gsa-sub043/internal/resource"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// scriptedTransport 按 cmd 返回预设响应
type scriptedTransport struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	header    http.Header
	requests  []command.Request
}

func (s *scriptedTransport) Do(_ context.Context, req command.Request) (*command.RawResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if err, ok := s.errs[req.Cmd()]; ok {
		return nil, err
	}
	body, ok := s.responses[req.Cmd()]
	if !ok {
		return nil, &command.RawRejection{StatusCode: http.StatusBadRequest, Body: []byte(`<envelope><gsad_response><message>Unknown command</message></gsad_response></envelope>`)}
	}
	return &command.RawResponse{StatusCode: http.StatusOK, Header: s.header, Body: []byte(body)}, nil
}

func (s *scriptedTransport) last() command.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

type apiResponse struct {
	Code    int                 `json:"code"`
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
	Error   string              `json:"error"`
	Reason  string              `json:"reason"`
	Title   string              `json:"title"`
}

func setupRouter(t *testing.T, tr command.Transport) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg, err := resource.NewRegistry(tr)
	require.NoError(t, err)
	cfg := &config.Config{
		App:     config.AppConfig{Version: "1.0.0"},
		Server:  config.ServerConfig{Mode: gin.TestMode},
		Backend: config.BackendConfig{URL: "https://127.0.0.1:9392"},
	}
	router := NewRouter(cfg, reg)
	router.SetupRoutes()
	return router.GetEngine()
}

func perform(t *testing.T, engine *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

const tasksXML = `<envelope><version>22.4</version><get_tasks><get_tasks_response>
	<task id="t1"><name>Weekly</name><progress>-1</progress></task>
	<task id="t2"><name>Daily</name><progress>50</progress></task>
	<filters id=""><term>first=1 rows=10 sort=name</term></filters>
	<tasks start="1" max="10"/>
	<task_count>2<filtered>2</filtered><page>2</page></task_count>
</get_tasks_response></get_tasks></envelope>`

func TestHealth(t *testing.T) {
	engine := setupRouter(t, &scriptedTransport{})
	w, _ := perform(t, engine, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	engine := setupRouter(t, &scriptedTransport{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestListResources(t *testing.T) {
	tr := &scriptedTransport{responses: map[string]string{"get_tasks": tasksXML}}
	engine := setupRouter(t, tr)

	w, resp := perform(t, engine, http.MethodGet, "/api/v1/tasks?filter=sort%3Dname&details=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", resp.Status)

	var list struct {
		Items  []map[string]any `json:"items"`
		Counts struct {
			All      int `json:"all"`
			Filtered int `json:"filtered"`
			Length   int `json:"length"`
		} `json:"counts"`
		Filter string `json:"filter"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, "t1", list.Items[0]["id"])
	assert.EqualValues(t, 50, list.Items[1]["progress"])
	assert.Equal(t, 2, list.Counts.All)
	assert.Equal(t, "first=1 rows=10 sort=name", list.Filter)

	req := tr.last()
	assert.Equal(t, "sort=name", req.Params.Get("filter"))
	assert.Equal(t, "1", req.Params.Get("details"))
}

func TestListAllAndSingularName(t *testing.T) {
	tr := &scriptedTransport{responses: map[string]string{"get_tasks": tasksXML}}
	engine := setupRouter(t, tr)

	w, _ := perform(t, engine, http.MethodGet, "/api/v1/task/all?filter=name~week", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "name~week first=1 rows=-1", tr.last().Params.Get("filter"))
}

func TestReservedParamsNotForwarded(t *testing.T) {
	tr := &scriptedTransport{responses: map[string]string{"get_tasks": tasksXML}}
	engine := setupRouter(t, tr)

	w, _ := perform(t, engine, http.MethodGet, "/api/v1/tasks?cmd=delete_task&token=x", "")
	require.Equal(t, http.StatusOK, w.Code)
	req := tr.last()
	assert.Equal(t, "get_tasks", req.Cmd())
	assert.False(t, req.Params.Has("token"))
}

func TestGetResource(t *testing.T) {
	tr := &scriptedTransport{responses: map[string]string{
		"get_target": `<envelope><get_target><get_targets_response>
			<target id="tg1"><name>Servers</name><hosts>10.0.0.1,10.0.0.2</hosts></target>
		</get_targets_response></get_target></envelope>`,
	}}
	engine := setupRouter(t, tr)

	w, resp := perform(t, engine, http.MethodGet, "/api/v1/target/tg1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var entity struct {
		Item map[string]any `json:"item"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &entity))
	assert.Equal(t, "tg1", entity.Item["id"])
	assert.Equal(t, []any{"10.0.0.1", "10.0.0.2"}, entity.Item["hosts"])
	assert.Equal(t, "tg1", tr.last().Params.Get("target_id"))
}

func TestUnknownResource(t *testing.T) {
	engine := setupRouter(t, &scriptedTransport{})
	w, resp := perform(t, engine, http.MethodGet, "/api/v1/widgets", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "failed", resp.Status)
	assert.Contains(t, resp.Error, "unknown resource")
}

func TestRejectionStatus(t *testing.T) {
	tr := &scriptedTransport{errs: map[string]error{
		"delete_task": &command.RawRejection{
			StatusCode: http.StatusConflict,
			Body:       []byte(`<envelope><gsad_response><title>Conflict</title><message>Task is in use</message></gsad_response></envelope>`),
		},
		"get_tasks": &command.RawRejection{Reason: envelope.ReasonTimeout},
	}}
	engine := setupRouter(t, tr)

	w, resp := perform(t, engine, http.MethodDelete, "/api/v1/task/t1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Task is in use", resp.Error)
	assert.Equal(t, "Conflict", resp.Title)
	assert.Equal(t, "error", resp.Reason)

	w, resp = perform(t, engine, http.MethodGet, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "timeout", resp.Reason)
	assert.Equal(t, envelope.DefaultRejectionMessage, resp.Error)
}

func TestCreateAndSave(t *testing.T) {
	action := `<envelope><action_result><action>Create Target</action><id>new-tg</id><message>OK</message></action_result></envelope>`
	tr := &scriptedTransport{responses: map[string]string{"create_target": action, "save_target": action}}
	engine := setupRouter(t, tr)

	w, resp := perform(t, engine, http.MethodPost, "/api/v1/target", `{"name":"web","hosts":["10.0.0.1"],"portListId":"pl1","sshPort":22}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(resp.Data), "new-tg")

	req := tr.last()
	assert.Equal(t, "create_target", req.Cmd())
	assert.Equal(t, []string{"10.0.0.1"}, req.Params.GetAll("hosts:"))
	assert.Equal(t, "pl1", req.Params.Get("port_list_id"))
	assert.Equal(t, "22", req.Params.Get("port"))

	w, _ = perform(t, engine, http.MethodPut, "/api/v1/target/tg1", `{"name":"renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	req = tr.last()
	assert.Equal(t, "save_target", req.Cmd())
	assert.Equal(t, "tg1", req.Params.Get("target_id"))

	w, _ = perform(t, engine, http.MethodPost, "/api/v1/target", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloneAndBulkDelete(t *testing.T) {
	action := `<envelope><action_result><id>copy-1</id></action_result></envelope>`
	tr := &scriptedTransport{responses: map[string]string{"clone": action, "bulk_delete": action}}
	engine := setupRouter(t, tr)

	w, _ := perform(t, engine, http.MethodPost, "/api/v1/task/t1/clone", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "task", tr.last().Params.Get("resource_type"))

	w, _ = perform(t, engine, http.MethodDelete, "/api/v1/tasks?id=t1&id=t2", "")
	require.Equal(t, http.StatusOK, w.Code)
	req := tr.last()
	assert.Equal(t, "1", req.Params.Get("bulk_selected:t1"))
	assert.Equal(t, "1", req.Params.Get("bulk_selected:t2"))

	w, _ = perform(t, engine, http.MethodDelete, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	tr := &scriptedTransport{
		responses: map[string]string{"bulk_export": `<get_port_lists_response><port_list id="pl1"/></get_port_lists_response>`},
		header:    http.Header{"Content-Type": []string{"application/xml"}},
	}
	engine := setupRouter(t, tr)

	w, _ := perform(t, engine, http.MethodGet, "/api/v1/port_list/pl1/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="port_list-pl1.xml"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), `port_list id="pl1"`)
	assert.True(t, tr.last().Raw)
}

func TestAggregates(t *testing.T) {
	tr := &scriptedTransport{responses: map[string]string{
		"get_aggregate": `<envelope><get_aggregate><get_aggregates_response><aggregate>
			<group><value>Done</value><count>3</count></group>
		</aggregate></get_aggregates_response></get_aggregate></envelope>`,
	}}
	engine := setupRouter(t, tr)

	w, resp := perform(t, engine, http.MethodGet, "/api/v1/tasks/aggregates?group_column=status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"Done"`)
	req := tr.last()
	assert.Equal(t, "task", req.Params.Get("aggregate_type"))
	assert.Equal(t, "status", req.Params.Get("group_column"))
}

func TestNormalizeFilter(t *testing.T) {
	engine := setupRouter(t, &scriptedTransport{})

	w, resp := perform(t, engine, http.MethodGet, "/api/v1/filter/normalize?filter="+
		"name%3D%22my+task%22+rows%3D10+first%3D11+sort-reverse%3Dseverity+term", "")
	require.Equal(t, http.StatusOK, w.Code)

	var explanation struct {
		Filter      string `json:"filter"`
		Simple      string `json:"simple"`
		First       int    `json:"first"`
		Rows        int    `json:"rows"`
		SortBy      string `json:"sort_by"`
		SortReverse bool   `json:"sort_reverse"`
		Terms       []struct {
			Keyword string `json:"keyword"`
			Value   string `json:"value"`
		} `json:"terms"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &explanation))
	assert.Equal(t, `name="my task" rows=10 first=11 sort-reverse=severity term`, explanation.Filter)
	assert.Equal(t, `name="my task" term`, explanation.Simple)
	assert.Equal(t, 11, explanation.First)
	assert.Equal(t, 10, explanation.Rows)
	assert.Equal(t, "severity", explanation.SortBy)
	assert.True(t, explanation.SortReverse)
	require.Len(t, explanation.Terms, 5)
	assert.Equal(t, "my task", explanation.Terms[0].Value)
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, errorStatus(command.ErrElementNotFound))
	assert.Equal(t, http.StatusBadRequest, errorStatus(command.ErrMissingID))
	assert.Equal(t, StatusClientClosedRequest, errorStatus(envelope.NewRejection(0, envelope.ReasonCancel, "")))
	assert.Equal(t, http.StatusUnauthorized, errorStatus(envelope.NewRejection(http.StatusUnauthorized, "", "")))
	assert.Equal(t, http.StatusBadGateway, errorStatus(&envelope.ParseError{Reason: "bad"}))
}
