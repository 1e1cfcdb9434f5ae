package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mschirtzinger/planner/internal/task"
)

// fakeEngine records created tasks the way the sync engine would.
type fakeEngine struct {
	tasks  []task.Task
	failOn string
}

func (f *fakeEngine) Create(content string) (task.Task, error) {
	if content == f.failOn {
		return task.Task{}, fmt.Errorf("create failed")
	}
	t := task.Task{ID: len(f.tasks) + 1, Content: content, CreatedTime: 1, Priority: task.PriorityLow}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeEngine) ToggleComplete(id int) (task.Task, error) {
	t := &f.tasks[id-1]
	if t.CompletedTime == 0 {
		t.CompletedTime = 2
	} else {
		t.CompletedTime = 0
	}
	return *t, nil
}

func (f *fakeEngine) CyclePriority(id int) (task.Task, error) {
	t := &f.tasks[id-1]
	t.Priority = t.Priority.Next()
	return *t, nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestReadJSONL(t *testing.T) {
	input := `{"id":1,"content":"a","createdTime":10,"completedTime":0,"priority":"H","lastModifiedTime":0,"deleted":false}

{"id":2,"content":"b","createdTime":11,"completedTime":12,"priority":"L","lastModifiedTime":12,"deleted":false}
`
	got, err := ReadJSONL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSONL failed: %v", err)
	}
	want := []task.Task{
		{ID: 1, Content: "a", CreatedTime: 10, Priority: task.PriorityHigh},
		{ID: 2, Content: "b", CreatedTime: 11, CompletedTime: 12, Priority: task.PriorityLow, LastModifiedTime: 12},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONL_InvalidLine(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"id\":1}\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error naming line 2, got %v", err)
	}
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	tasks := []task.Task{
		{ID: 1, Content: "a", CreatedTime: 10, Priority: task.PriorityMedium},
		{ID: 3, Content: "c", CreatedTime: 30, Priority: task.PriorityLow},
	}
	if err := ExportFile(path, tasks); err != nil {
		t.Fatalf("ExportFile failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if lines := bytes.Count(data, []byte("\n")); lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
	got, err := ReadJSONL(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadJSONL failed: %v", err)
	}
	if diff := cmp.Diff(tasks, got); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestImport(t *testing.T) {
	path := writeFile(t, strings.Join([]string{
		`{"id":4,"content":"keep high","createdTime":1,"priority":"H"}`,
		`{"id":5,"content":"done medium","createdTime":1,"completedTime":9,"priority":"M"}`,
		`{"id":6,"content":"gone","createdTime":1,"priority":"L","deleted":true}`,
		`{"id":7,"content":"bad","createdTime":1,"priority":"X"}`,
	}, "\n"))

	eng := &fakeEngine{}
	result, err := Import(eng, ImportOptions{FromJSONL: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Read != 4 || result.Created != 2 || result.Skipped != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", result.Errors)
	}

	want := []task.Task{
		{ID: 1, Content: "keep high", CreatedTime: 1, Priority: task.PriorityHigh},
		{ID: 2, Content: "done medium", CreatedTime: 1, CompletedTime: 2, Priority: task.PriorityMedium},
	}
	if diff := cmp.Diff(want, eng.tasks); diff != "" {
		t.Errorf("created tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_DryRun(t *testing.T) {
	path := writeFile(t, `{"id":1,"content":"a","createdTime":1,"priority":"L"}`+"\n")

	eng := &fakeEngine{}
	result, err := Import(eng, ImportOptions{FromJSONL: path, DryRun: true})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("expected 1 counted, got %d", result.Created)
	}
	if len(eng.tasks) != 0 {
		t.Errorf("dry run created %d tasks", len(eng.tasks))
	}
}

func TestImport_EngineError(t *testing.T) {
	path := writeFile(t, `{"id":1,"content":"boom","createdTime":1,"priority":"L"}`+"\n")

	result, err := Import(&fakeEngine{failOn: "boom"}, ImportOptions{FromJSONL: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Created != 0 || len(result.Errors) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestImport_MissingFile(t *testing.T) {
	_, err := Import(&fakeEngine{}, ImportOptions{FromJSONL: filepath.Join(t.TempDir(), "nope.jsonl")})
	if err == nil {
		t.Error("expected error for missing file")
	}
}
