package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/treasury/internal/jobs"
)

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.RiskScanJob{JobID: "j1", HorizonDays: 30, Status: jobs.JobStatusPending, Result: &jobs.ScanResult{AtRiskCount: 2}}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	job.Result.AtRiskCount = 99
	got, err := store.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.HorizonDays != 30 || got.Result.AtRiskCount != 2 {
		t.Errorf("Expected stored copy to be unaffected, got %+v", got)
	}

	if _, err := store.GetJob(ctx, "missing"); err == nil {
		t.Error("Expected error for missing job")
	}
	if err := store.SaveJob(ctx, &jobs.RiskScanJob{}); err == nil {
		t.Error("Expected error for job without ID")
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.RiskScanJob{
		{JobID: "a", Trigger: jobs.TriggerSchedule, Status: jobs.JobStatusCompleted},
		{JobID: "b", Trigger: jobs.TriggerAPI, Status: jobs.JobStatusFailed},
		{JobID: "c", Trigger: jobs.TriggerSchedule, Status: jobs.JobStatusCompleted},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by trigger", jobs.JobFilter{Trigger: jobs.TriggerSchedule}, []string{"c", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusFailed}, []string{"b"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"c"}},
		{"offset", jobs.JobFilter{Offset: 2}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d jobs, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("Job %d: expected %s, got %s", i, id, got[i].JobID)
				}
			}
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.SaveJob(ctx, &jobs.RiskScanJob{JobID: "j1", Status: jobs.JobStatusRunning})

	if err := store.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	got, _ := store.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("Unexpected job %+v", got)
	}
	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("Expected error for missing job")
	}
}
