package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeDailyReport is the asynq task type for end-of-day report generation.
const TypeDailyReport = "reports:daily"

type dailyReportPayload struct {
	Date string `json:"date"`
}

// NewDailyReportTask builds the task covering the given day.
func NewDailyReportTask(day time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(dailyReportPayload{Date: dayString(day)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDailyReport, payload, asynq.MaxRetry(3)), nil
}

// TaskHandler processes report tasks on the worker.
type TaskHandler struct {
	Reports *Service
	Log     zerolog.Logger
}

// HandleDailyReport generates the sales, financial, and inventory reports for
// the day named in the payload. Defaults to the previous day when absent.
func (h *TaskHandler) HandleDailyReport(ctx context.Context, task *asynq.Task) error {
	var payload dailyReportPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("reports: decode daily task payload: %w", err)
		}
	}
	day := h.Reports.now().AddDate(0, 0, -1)
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return fmt.Errorf("reports: parse task date: %w", err)
		}
		day = parsed.UTC()
	}

	if _, err := h.Reports.Sales(ctx, day, day); err != nil {
		return fmt.Errorf("reports: daily sales: %w", err)
	}
	if _, err := h.Reports.Financial(ctx, day, day); err != nil {
		return fmt.Errorf("reports: daily financial: %w", err)
	}
	if _, err := h.Reports.Inventory(ctx, day); err != nil {
		return fmt.Errorf("reports: daily inventory: %w", err)
	}
	h.Log.Info().Str("date", dayString(day)).Msg("daily reports generated")
	return nil
}
