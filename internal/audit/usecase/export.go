package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/fursurecare/otpservice/internal/audit/entity"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/storage"
)

const exportPageSize int32 = 1_000

type ExportOutput struct {
	URL       string
	Key       string
	Count     int
	ExpiresAt time.Time
}

type exportRecord struct {
	EventID    string         `json:"event_id"`
	Kind       string         `json:"kind"`
	Reason     string         `json:"reason,omitempty"`
	Source     string         `json:"source,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Export writes every verification event of the caller to object storage as
// one JSON document and returns a time-limited download link.
func (s *Usecase) Export(ctx context.Context) (*ExportOutput, error) {
	ctx, span := s.startSpan(ctx, "Export")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.cfg.GetString("modules.audit.export_bucket")
	if s.storage == nil || bucket == "" {
		return nil, goerror.NewBusiness("audit export is not available", goerror.CodeUnavailable)
	}

	var (
		events []entity.VerificationEvent
		offset int32
	)
	for {
		page, total, err := s.repoDB.ListVerificationEvents(ctx, entity.VerificationEventFilter{
			Email:  clm.UserEmail,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list verification events for export", "user_id", clm.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}

		events = append(events, page...)
		if len(page) == 0 || int64(len(events)) >= total {
			break
		}
		offset += exportPageSize
	}

	body, err := json.Marshal(lo.Map(events, func(ev entity.VerificationEvent, _ int) exportRecord {
		return exportRecord{
			EventID:    ev.EventID,
			Kind:       ev.Kind,
			Reason:     ev.Reason,
			Source:     ev.Source,
			Metadata:   ev.Metadata,
			OccurredAt: ev.OccurredAt,
		}
	}))
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now().UTC()
	stamp := now.Format("20060102T150405Z")
	key := fmt.Sprintf("verification-audit/%d/%s.json", clm.UserID, stamp)

	if _, err := s.storage.PutObject(ctx, bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:         int64(len(body)),
		ContentType:  "application/json",
		Metadata:     map[string]string{"user-id": strconv.FormatInt(clm.UserID, 10)},
		DownloadName: "fursurecare-verification-audit-" + stamp + ".json",
		CacheControl: "private, no-store",
	}); err != nil {
		slog.ErrorContext(ctx, "failed to store verification audit export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServerMsg(err, "failed to store audit export", goerror.CodeUnavailable)
	}

	ttl := s.exportURLTTL()
	url, err := s.storage.PresignGet(ctx, bucket, key, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign verification audit export", "bucket", bucket, "key", key, "error", err)
		if derr := s.storage.DeleteObject(ctx, bucket, key); derr != nil {
			slog.WarnContext(ctx, "failed to delete unsigned audit export", "bucket", bucket, "key", key, "error", derr)
		}
		return nil, goerror.NewServerMsg(err, "failed to sign audit export", goerror.CodeUnavailable)
	}

	return &ExportOutput{
		URL:       url,
		Key:       key,
		Count:     len(events),
		ExpiresAt: now.Add(ttl),
	}, nil
}
