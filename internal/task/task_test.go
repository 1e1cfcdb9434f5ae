package task

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPriority_Next(t *testing.T) {
	tests := []struct {
		in   Priority
		want Priority
	}{
		{PriorityLow, PriorityMedium},
		{PriorityMedium, PriorityHigh},
		{PriorityHigh, PriorityLow},
		{Priority("X"), PriorityMedium},
	}

	for _, tt := range tests {
		if got := tt.in.Next(); got != tt.want {
			t.Errorf("%q.Next() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	for _, in := range []string{"L", "low", "M", "medium", "H", "high"} {
		p, err := ParsePriority(in)
		if err != nil {
			t.Errorf("ParsePriority(%q) unexpected error: %v", in, err)
			continue
		}
		if !p.Valid() {
			t.Errorf("ParsePriority(%q) = %q, not valid", in, p)
		}
	}

	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("ParsePriority(urgent) expected error")
	}
}

func TestTask_Validate(t *testing.T) {
	now := Millis(time.Now())

	tests := []struct {
		name    string
		task    Task
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid task",
			task: Task{ID: 1, Content: "write report", CreatedTime: now, Priority: PriorityLow},
		},
		{
			name:    "zero id",
			task:    Task{Content: "x", CreatedTime: now, Priority: PriorityLow},
			wantErr: true,
			errMsg:  "id must be positive",
		},
		{
			name:    "bad priority",
			task:    Task{ID: 2, Content: "x", CreatedTime: now, Priority: "Z"},
			wantErr: true,
			errMsg:  "invalid priority",
		},
		{
			name:    "missing created time",
			task:    Task{ID: 3, Content: "x", Priority: PriorityHigh},
			wantErr: true,
			errMsg:  "createdTime is required",
		},
		{
			name:    "negative completed time",
			task:    Task{ID: 4, Content: "x", CreatedTime: now, CompletedTime: -1, Priority: PriorityHigh},
			wantErr: true,
			errMsg:  "completedTime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestTask_JSONFieldNames(t *testing.T) {
	task := Task{
		ID:               7,
		Content:          "buy milk",
		CreatedTime:      1700000000000,
		CompletedTime:    0,
		Priority:         PriorityMedium,
		LastModifiedTime: 1700000000500,
		Deleted:          true,
	}

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"id":7,"content":"buy milk","createdTime":1700000000000,"completedTime":0,"priority":"M","lastModifiedTime":1700000000500,"deleted":true}`
	if string(data) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestTombstone(t *testing.T) {
	at := time.UnixMilli(1700000001234)
	orig := Task{ID: 3, Content: "c", CreatedTime: 1, Priority: PriorityLow}

	tomb := orig.Tombstone(at)

	if !tomb.Deleted || tomb.LastModifiedTime != 1700000001234 {
		t.Errorf("Tombstone() = %+v", tomb)
	}
	if orig.Deleted {
		t.Error("Tombstone() modified the receiver")
	}
	if tomb.Version() != 1700000001234 {
		t.Errorf("Version() = %d", tomb.Version())
	}
	if orig.Version() != 1 {
		t.Errorf("Version() of unedited task = %d, want createdTime", orig.Version())
	}
}

func TestMarshalList_NilIsEmptyArray(t *testing.T) {
	data, err := MarshalList(nil)
	if err != nil {
		t.Fatalf("MarshalList failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("MarshalList(nil) = %s, want []", data)
	}

	tasks, err := UnmarshalList(data)
	if err != nil {
		t.Fatalf("UnmarshalList failed: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("UnmarshalList([]) = %#v, want empty slice", tasks)
	}
}

func TestMaxIDAndSort(t *testing.T) {
	tasks := []Task{{ID: 4}, {ID: 9}, {ID: 2}}
	if got := MaxID(tasks); got != 9 {
		t.Errorf("MaxID() = %d, want 9", got)
	}
	if got := MaxID(nil); got != 0 {
		t.Errorf("MaxID(nil) = %d, want 0", got)
	}

	SortByID(tasks)
	if diff := cmp.Diff([]Task{{ID: 2}, {ID: 4}, {ID: 9}}, tasks); diff != "" {
		t.Errorf("SortByID mismatch (-want +got):\n%s", diff)
	}

	clone := Clone(tasks)
	clone[0].Content = "changed"
	if tasks[0].Content != "" {
		t.Error("Clone shares backing array with input")
	}
}
