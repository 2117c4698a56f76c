package command

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
	"github.com/greenbone/gsa-sub043/internal/pkg/filter"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport 记录请求并返回预设响应
type fakeTransport struct {
	mu       sync.Mutex
	requests []Request
	status   int
	header   http.Header
	body     string
	err      error
}

func (f *fakeTransport) Do(_ context.Context, req Request) (*RawResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &RawResponse{StatusCode: status, Header: f.header, Body: []byte(f.body)}, nil
}

func (f *fakeTransport) last(t *testing.T) Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func respond(body string) *fakeTransport {
	return &fakeTransport{body: body}
}

func TestParams_Encode(t *testing.T) {
	p := NewParams().
		Set("cmd", "create_target").
		Set("name", "web servers").
		Set("hosts", []string{"10.0.0.1", "10.0.0.2"}).
		Set("alive_tests:", []string{"ICMP Ping"}).
		Set("allow_simultaneous_ips", true).
		Set("reverse_lookup_only", false).
		Set("comment", nil)

	assert.Equal(t, []string{"cmd", "name", "hosts:", "alive_tests:", "allow_simultaneous_ips", "reverse_lookup_only"}, p.Keys())
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, p.GetAll("hosts:"))
	assert.Equal(t, "1", p.Get("allow_simultaneous_ips"))
	assert.Equal(t, "0", p.Get("reverse_lookup_only"))
	assert.False(t, p.Has("comment"))
	assert.Equal(t,
		"cmd=create_target&name=web+servers&hosts%3A=10.0.0.1&hosts%3A=10.0.0.2&alive_tests%3A=ICMP+Ping&allow_simultaneous_ips=1&reverse_lookup_only=0",
		p.Encode())
}

func TestParams_SetReplaces(t *testing.T) {
	p := NewParams().Set("cmd", "a").Set("x", 1).Set("cmd", "b")
	assert.Equal(t, []string{"cmd", "x"}, p.Keys())
	assert.Equal(t, "b", p.Get("cmd"))

	c := p.Clone().Set("x", 2)
	assert.Equal(t, "1", p.Get("x"))
	assert.Equal(t, "2", c.Get("x"))
}

func TestParams_SetFilter(t *testing.T) {
	p := NewParams().SetFilter(filter.Parse("name~scan rows=10").WithID("f1"))
	assert.Equal(t, "name~scan rows=10", p.Get("filter"))
	assert.Equal(t, "f1", p.Get("filter_id"))

	empty := NewParams().SetFilter(nil)
	assert.Equal(t, 0, empty.Len())
}

func TestMapFields(t *testing.T) {
	p := MapFields(map[string]any{
		"name":          "Target",
		"portListId":    "pl1",
		"sshCredential": "c1",
		"ignored":       "x",
		"hosts":         []string{"a", "b"},
		"portIds":       []int{1, 2},
		"weights":       []float64{0.5},
		"flags":         []bool{true, false},
		"comment":       []byte("raw"),
	}, map[string]string{
		"sshCredential": "ssh_credential_id",
		"ignored":       "",
	})

	assert.Equal(t, "Target", p.Get("name"))
	assert.Equal(t, "pl1", p.Get("port_list_id"))
	assert.Equal(t, "c1", p.Get("ssh_credential_id"))
	assert.Equal(t, []string{"a", "b"}, p.GetAll("hosts:"))
	assert.Equal(t, []string{"1", "2"}, p.GetAll("port_ids:"))
	assert.Equal(t, []string{"0.5"}, p.GetAll("weights:"))
	assert.Equal(t, []string{"1", "0"}, p.GetAll("flags:"))
	assert.Equal(t, "raw", p.Get("comment"))
	assert.False(t, p.Has("port_ids"))
	assert.False(t, p.Has("ignored"))
}

const taskEnvelope = `<envelope>
  <version>22.4</version>
  <time>Mon Oct 12 10:00:00 2026</time>
  <get_task>
    <get_tasks_response status="200" status_text="OK">
      <task id="t1">
        <name>Full scan</name>
        <owner><name>admin</name></owner>
        <in_use>0</in_use>
      </task>
    </get_tasks_response>
  </get_task>
</envelope>`

func TestEntityCommand_Get(t *testing.T) {
	tr := respond(taskEnvelope)
	cmd, err := NewEntityCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	result, err := cmd.Get(context.Background(), "t1", GetOptions{Extra: map[string]any{"details": 1}})
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "get_task", req.Cmd())
	assert.Equal(t, "t1", req.Params.Get("task_id"))
	assert.Equal(t, "1", req.Params.Get("details"))

	assert.Equal(t, "t1", result.Data.ID())
	assert.Equal(t, "Full scan", result.Data.String("name"))
	owner, ok := result.Data.Lookup("owner.name")
	require.True(t, ok)
	assert.Equal(t, "admin", owner)
	assert.Equal(t, "0", result.Data["inUse"])
	assert.Equal(t, 22.4, result.Meta.Version)
	assert.Equal(t, "Mon Oct 12 10:00:00 2026", result.Meta.Time)
}

func TestEntityCommand_GetListElement(t *testing.T) {
	tr := respond(`<envelope><get_task><get_tasks_response>
		<task id="t1"><name>first</name></task>
		<task id="t2"><name>second</name></task>
	</get_tasks_response></get_task></envelope>`)
	cmd, err := NewEntityCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	result, err := cmd.Get(context.Background(), "t1", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "t1", result.Data.ID())
	assert.Equal(t, "first", result.Data.String("name"))
}

func TestEntityCommand_GetErrors(t *testing.T) {
	cmd, err := NewEntityCommand(respond(`<envelope><get_task/></envelope>`), Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.Get(context.Background(), "", GetOptions{})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = cmd.Get(context.Background(), "t1", GetOptions{})
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestEntityCommand_Rejection(t *testing.T) {
	tr := &fakeTransport{err: &RawRejection{
		StatusCode: http.StatusBadRequest,
		Body: []byte(`<envelope>
			<action_result><message>from action</message></action_result>
			<gsad_response><title>Bad request</title><message>Task is in use</message></gsad_response>
		</envelope>`),
	}}
	cmd, err := NewEntityCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.Delete(context.Background(), "t1")
	require.Error(t, err)

	rej, ok := err.(*envelope.Rejection)
	require.True(t, ok, "rejection must be returned as is")
	assert.Equal(t, http.StatusBadRequest, rej.StatusCode)
	assert.Equal(t, "Task is in use", rej.Message)
	assert.Equal(t, "Bad request", rej.Title)
	assert.Equal(t, envelope.ReasonError, rej.Reason)
}

func TestEntityCommand_RejectionReasonOverride(t *testing.T) {
	tr := &fakeTransport{err: &RawRejection{Reason: envelope.ReasonTimeout}}
	cmd, err := NewEntityCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.Get(context.Background(), "t1", GetOptions{})
	rej, ok := envelope.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, envelope.ReasonTimeout, rej.Reason)
	assert.Equal(t, envelope.DefaultRejectionMessage, rej.Message)
}

func TestEntityCommand_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	cmd, err := NewEntityCommand(&fakeTransport{err: boom}, Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.Get(context.Background(), "t1", GetOptions{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, envelope.IsRejection(err))
}

func TestEntityCommand_DecodeError(t *testing.T) {
	cmd, err := NewEntityCommand(respond("<envelope><task>"), Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.Get(context.Background(), "t1", GetOptions{})
	require.Error(t, err)
	assert.True(t, envelope.IsParseError(err))
}

const actionEnvelope = `<envelope>
  <version>22.4</version>
  <action_result><action>Create Target</action><id>new-id</id><message>OK</message></action_result>
</envelope>`

func TestEntityCommand_Create(t *testing.T) {
	tr := respond(actionEnvelope)
	cmd, err := NewEntityCommand(tr, Resource{
		Name:     "target",
		FieldMap: map[string]string{"portListId": "port_list_id", "internal": ""},
	})
	require.NoError(t, err)

	result, err := cmd.Create(context.Background(), map[string]any{
		"name":       "web",
		"hosts":      []string{"10.0.0.1"},
		"portListId": "pl1",
		"internal":   "skip me",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", result.ID)
	assert.Equal(t, "Create Target", result.Action)
	assert.Equal(t, "OK", result.Message)

	req := tr.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "cmd", req.Params.Keys()[0])
	assert.Equal(t, "create_target", req.Cmd())
	assert.Equal(t, "web", req.Params.Get("name"))
	assert.Equal(t, []string{"10.0.0.1"}, req.Params.GetAll("hosts:"))
	assert.Equal(t, "pl1", req.Params.Get("port_list_id"))
	assert.False(t, req.Params.Has("internal"))
}

func TestEntityCommand_Save(t *testing.T) {
	tr := respond(actionEnvelope)
	cmd, err := NewEntityCommand(tr, Resource{Name: "port_list"})
	require.NoError(t, err)

	_, err = cmd.Save(context.Background(), map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = cmd.Save(context.Background(), map[string]any{"id": "pl1", "name": "All TCP"})
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, "save_port_list", req.Cmd())
	assert.Equal(t, "pl1", req.Params.Get("port_list_id"))
	assert.Equal(t, "All TCP", req.Params.Get("name"))
	assert.False(t, req.Params.Has("id"))
}

func TestEntityCommand_DeleteAndClone(t *testing.T) {
	tr := respond(actionEnvelope)
	cmd, err := NewEntityCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.Delete(context.Background(), "t1")
	require.NoError(t, err)
	req := tr.last(t)
	assert.Equal(t, "delete_task", req.Cmd())
	assert.Equal(t, "t1", req.Params.Get("task_id"))

	result, err := cmd.Clone(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "new-id", result.ID)
	req = tr.last(t)
	assert.Equal(t, "clone", req.Cmd())
	assert.Equal(t, "task", req.Params.Get("resource_type"))
	assert.Equal(t, "t1", req.Params.Get("id"))
}

func TestEntityCommand_Export(t *testing.T) {
	tr := respond(`<get_tasks_response><task id="t1"/></get_tasks_response>`)
	tr.header = http.Header{
		"Content-Type":        []string{"application/xml"},
		"Content-Disposition": []string{`attachment; filename="task-t1.xml"`},
	}
	cmd, err := NewEntityCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	result, err := cmd.Export(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "application/xml", result.ContentType)
	assert.Equal(t, "task-t1.xml", result.Filename)
	assert.Contains(t, string(result.Body), "get_tasks_response")

	req := tr.last(t)
	assert.True(t, req.Raw)
	assert.Equal(t, "bulk_export", req.Cmd())
	assert.Equal(t, "task", req.Params.Get("resource_type"))
	assert.Equal(t, "1", req.Params.Get("bulk_select"))
	assert.Equal(t, "1", req.Params.Get("bulk_selected:t1"))
}

const tasksEnvelope = `<envelope>
  <version>22.4</version>
  <get_tasks>
    <get_tasks_response status="200">
      <task id="t1"><name>one</name></task>
      <task id="t2"><name>two</name></task>
      <filters id="f1"><term>first=11 rows=10 sort=name</term></filters>
      <tasks start="11" max="10"/>
      <task_count>25<filtered>12</filtered><page>2</page></task_count>
    </get_tasks_response>
  </get_tasks>
</envelope>`

func TestCollectionCommand_Get(t *testing.T) {
	tr := respond(tasksEnvelope)
	cmd, err := NewCollectionCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	result, err := cmd.Get(context.Background(), ListOptions{Filter: filter.Parse("first=11 rows=10 sort=name")})
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "get_tasks", req.Cmd())
	assert.Equal(t, "first=11 rows=10 sort=name", req.Params.Get("filter"))

	require.Len(t, result.Data, 2)
	assert.Equal(t, "t1", result.Data[0].ID())
	assert.Equal(t, "two", result.Data[1].String("name"))

	counts := result.Meta.Counts
	assert.Equal(t, 25, counts.All)
	assert.Equal(t, 12, counts.Filtered)
	assert.Equal(t, 11, counts.First)
	assert.Equal(t, 10, counts.Rows)
	assert.Equal(t, 2, counts.Length)
	assert.Equal(t, 12, counts.Last())
	assert.False(t, counts.HasNext())
	assert.True(t, counts.HasPrevious())

	assert.Equal(t, "first=11 rows=10 sort=name", result.Meta.FilterString())
	assert.Equal(t, "f1", result.Meta.Filter.ID())
	assert.Equal(t, 22.4, result.Meta.Version)
}

func TestCollectionCommand_GetSingleElement(t *testing.T) {
	tr := respond(`<envelope><get_tasks><get_tasks_response>
		<task id="only"><name>one</name></task>
		<task_count>1<filtered>1</filtered><page>1</page></task_count>
	</get_tasks_response></get_tasks></envelope>`)
	cmd, err := NewCollectionCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	result, err := cmd.Get(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "only", result.Data[0].ID())
	assert.Nil(t, result.Meta.Filter)
	assert.False(t, tr.last(t).Params.Has("filter"))
}

func TestCollectionCommand_GetEmpty(t *testing.T) {
	cmd, err := NewCollectionCommand(respond(`<envelope><get_tasks><get_tasks_response/></get_tasks></envelope>`), Resource{Name: "task"})
	require.NoError(t, err)

	result, err := cmd.Get(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}

func TestCollectionCommand_ResourceNames(t *testing.T) {
	res := Resource{Name: "resource", Plural: "resource_names"}

	single := respond(`<envelope><get_resource_names><get_resource_names_response>
		<resource id="r1"><name>only</name></resource>
	</get_resource_names_response></get_resource_names></envelope>`)
	cmd, err := NewCollectionCommand(single, res)
	require.NoError(t, err)

	result, err := cmd.Get(context.Background(), ListOptions{Extra: map[string]any{"resource_type": "task"}})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "r1", result.Data[0].ID())
	assert.Equal(t, 1, result.Meta.Counts.All)
	assert.Equal(t, "get_resource_names", single.last(t).Cmd())
	assert.Equal(t, "task", single.last(t).Params.Get("resource_type"))

	multi := respond(`<envelope><get_resource_names><get_resource_names_response>
		<resource id="r1"><name>a</name></resource>
		<resource id="r2"><name>b</name></resource>
		<resource id="r3"><name>c</name></resource>
	</get_resource_names_response></get_resource_names></envelope>`)
	cmd, err = NewCollectionCommand(multi, res)
	require.NoError(t, err)

	result, err = cmd.Get(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, result.Data, 3)
	assert.Equal(t, "c", result.Data[2].String("name"))
	assert.Equal(t, 3, result.Meta.Counts.Filtered)
}

func TestCollectionCommand_GetAll(t *testing.T) {
	tr := respond(tasksEnvelope)
	cmd, err := NewCollectionCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.GetAll(context.Background(), ListOptions{Filter: filter.Parse("name~scan first=5 rows=10")})
	require.NoError(t, err)

	f := filter.Parse(tr.last(t).Params.Get("filter"))
	assert.Equal(t, "scan", f.Value("name"))
	assert.Equal(t, 1, f.First())
	assert.Equal(t, -1, f.Rows())
}

func TestCollectionCommand_CustomMapper(t *testing.T) {
	tr := respond(tasksEnvelope)
	upper := record.Chain(nil, func(r record.Record) record.Record {
		r["name"] = strings.ToUpper(r.String("name"))
		return r
	})
	cmd, err := NewCollectionCommand(tr, Resource{Name: "task", Mapper: upper})
	require.NoError(t, err)

	result, err := cmd.Get(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ONE", result.Data[0].String("name"))
}

func TestCollectionCommand_BulkDelete(t *testing.T) {
	tr := respond(actionEnvelope)
	cmd, err := NewCollectionCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	_, err = cmd.Delete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = cmd.Delete(context.Background(), []string{"t1", "t2"})
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "bulk_delete", req.Cmd())
	assert.Equal(t, "task", req.Params.Get("resource_type"))
	assert.Equal(t, "1", req.Params.Get("bulk_select"))
	assert.Equal(t, "1", req.Params.Get("bulk_selected:t1"))
	assert.Equal(t, "1", req.Params.Get("bulk_selected:t2"))

	_, err = cmd.DeleteByFilter(context.Background(), filter.Parse("name~old"))
	require.NoError(t, err)
	req = tr.last(t)
	assert.False(t, req.Params.Has("bulk_select"))
	f := filter.Parse(req.Params.Get("filter"))
	assert.Equal(t, "old", f.Value("name"))
	assert.Equal(t, -1, f.Rows())
}

func TestCollectionCommand_Export(t *testing.T) {
	tr := respond(`<get_targets_response/>`)
	cmd, err := NewCollectionCommand(tr, Resource{Name: "target"})
	require.NoError(t, err)

	result, err := cmd.Export(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "<get_targets_response/>", string(result.Body))
	assert.NotEmpty(t, result.ContentType)
	assert.True(t, tr.last(t).Raw)

	_, err = cmd.ExportByFilter(context.Background(), filter.Parse("rows=-1"))
	require.NoError(t, err)
	req := tr.last(t)
	assert.Equal(t, "0", req.Params.Get("bulk_select"))
	assert.Equal(t, "rows=-1", req.Params.Get("filter"))
}

func TestCollectionCommand_GetAggregates(t *testing.T) {
	tr := respond(`<envelope><get_aggregate><get_aggregates_response>
		<aggregate>
			<data_type>task</data_type>
			<group><value>Done</value><count>3</count><c_count>3</c_count></group>
			<group><value>New</value><count>1</count><c_count>4</c_count></group>
			<column_info>
				<aggregate_column><name>value</name><type>task</type><column>status</column></aggregate_column>
			</column_info>
		</aggregate>
	</get_aggregates_response></get_aggregate></envelope>`)
	cmd, err := NewCollectionCommand(tr, Resource{Name: "task"})
	require.NoError(t, err)

	result, err := cmd.GetAggregates(context.Background(), AggregateOptions{
		GroupColumn: "status",
		DataColumns: []string{"severity"},
	})
	require.NoError(t, err)

	req := tr.last(t)
	assert.Equal(t, "get_aggregate", req.Cmd())
	assert.Equal(t, "task", req.Params.Get("aggregate_type"))
	assert.Equal(t, "status", req.Params.Get("group_column"))
	assert.Equal(t, []string{"severity"}, req.Params.GetAll("data_columns:"))

	require.Len(t, result.Groups, 2)
	assert.Equal(t, "Done", result.Groups[0].String("value"))
	assert.Equal(t, "4", result.Groups[1].String("cCount"))
	require.Len(t, result.Columns, 1)
	assert.Equal(t, "status", result.Columns[0].String("column"))
}

func TestRegistry(t *testing.T) {
	tr := respond(tasksEnvelope)
	reg := NewRegistry(tr).MustRegister(
		Resource{Name: "task"},
		Resource{Name: "resource", Plural: "resource_names"},
	)

	res, err := reg.Lookup("tasks")
	require.NoError(t, err)
	assert.Equal(t, "task", res.Name)
	assert.Equal(t, "get_task.get_tasks_response.task", res.ElementPath)

	res, err = reg.Lookup("resource_names")
	require.NoError(t, err)
	assert.Equal(t, "get_resource_names.get_resource_names_response", res.ListPath)

	_, err = reg.Entity("nope")
	assert.ErrorIs(t, err, ErrUnknownResource)

	coll, err := reg.Collection("task")
	require.NoError(t, err)
	result, err := coll.Get(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Data, 2)

	names := make([]string, 0)
	for _, r := range reg.Resources() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"resource", "task"}, names)

	assert.Error(t, reg.Register(Resource{}))
}

func TestRegistry_ReplaceResource(t *testing.T) {
	reg := NewRegistry(respond(""))
	require.NoError(t, reg.Register(Resource{Name: "info", Plural: "infos"}))
	require.NoError(t, reg.Register(Resource{Name: "info", Plural: "info"}))

	_, err := reg.Lookup("infos")
	assert.ErrorIs(t, err, ErrUnknownResource)
	res, err := reg.Lookup("info")
	require.NoError(t, err)
	assert.Equal(t, "info", res.Plural)
}
