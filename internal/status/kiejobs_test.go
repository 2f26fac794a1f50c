package status

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkhalov/genflow/internal/kieai"
)

func TestNormalizeKieJob(t *testing.T) {
	tests := []struct {
		name string
		rec  kieai.TaskRecord
		want Normalized
	}{
		{
			name: "non-200 code stays pending",
			rec:  kieai.TaskRecord{Code: 422, Msg: "record is null"},
			want: Pending(),
		},
		{
			name: "missing data stays pending",
			rec:  kieai.TaskRecord{Code: 200},
			want: Pending(),
		},
		{
			name: "empty state stays pending",
			rec:  kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{}},
			want: Pending(),
		},
		{
			name: "unknown state stays pending",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State: "queueing",
			}},
			want: Pending(),
		},
		{
			name: "success via object resultJson completes",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State:      "success",
				ResultJSON: json.RawMessage(`{"resultUrls":["https://cdn/a.mp4"]}`),
			}},
			want: Completed("https://cdn/a.mp4"),
		},
		{
			name: "success via string-encoded resultJson completes",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State:      "completed",
				ResultJSON: json.RawMessage(`"{\"resultUrls\":[\"https://cdn/b.mp4\"]}"`),
			}},
			want: Completed("https://cdn/b.mp4"),
		},
		{
			name: "success via videoInfo completes",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State:     "done",
				VideoInfo: &kieai.TaskVideoInfo{VideoURL: "https://cdn/c.mp4"},
			}},
			want: Completed("https://cdn/c.mp4"),
		},
		{
			name: "success via flat videoUrl completes",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				Status:   "SUCCESS",
				VideoURL: "https://cdn/d.mp4",
			}},
			want: Completed("https://cdn/d.mp4"),
		},
		{
			name: "success via snake_case video_url completes",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				TaskStatus: "success",
				VideoURLv2: "https://cdn/e.mp4",
			}},
			want: Completed("https://cdn/e.mp4"),
		},
		{
			name: "state field wins over status field",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State:  "waiting",
				Status: "success",
			}},
			want: Pending(),
		},
		{
			name: "success without any url stays pending",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State: "success",
			}},
			want: Pending(),
		},
		{
			name: "success with undecodable resultJson and no fallback stays pending",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State:      "success",
				ResultJSON: json.RawMessage(`"not json at all"`),
			}},
			want: Pending(),
		},
		{
			name: "failure with failMsg fails",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State:   "failed",
				FailMsg: "prompt rejected",
			}},
			want: Failed("prompt rejected"),
		},
		{
			name: "failure with errorMessage fails",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				Status:       "fail",
				ErrorMessage: "upstream error",
			}},
			want: Failed("upstream error"),
		},
		{
			name: "failure with structured error field fails",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State: "error",
				Error: json.RawMessage(`"bad input"`),
			}},
			want: Failed("bad input"),
		},
		{
			name: "failure without any message gets generic reason",
			rec: kieai.TaskRecord{Code: 200, Data: &kieai.TaskRecordData{
				State: "failed",
			}},
			want: Failed("generation failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKieJob(tt.rec))
		})
	}
}
