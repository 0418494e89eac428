package repository

import (
	"context"
	"path/filepath"

	"github.com/iliyamo/storefront/internal/model"
)

// OutboxRepo is the local mail outbox, DATA_DIR/_outbox/emails.json.  Mails
// land here when no relay is configured or the queue is unreachable.
type OutboxRepo struct{ file *jsonFile[[]model.Mail] }

func NewOutboxRepo(dataDir string) *OutboxRepo {
	return &OutboxRepo{file: newJSONFile[[]model.Mail](filepath.Join(dataDir, "_outbox", "emails.json"))}
}

func (r *OutboxRepo) Append(ctx context.Context, m model.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.file.update(func(list *[]model.Mail) error {
		*list = append(*list, m)
		return nil
	})
}

func (r *OutboxRepo) List(ctx context.Context) ([]model.Mail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.file.load()
}
