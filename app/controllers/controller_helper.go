package controllers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// notFoundOr maps gorm's not-found to a 404 and everything else to a 500.
func notFoundOr(err error, notFoundMessage, internalMessage string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(notFoundMessage)
	}
	return apperror.Internal(internalMessage, err)
}

// pagination reads ?page=&limit= (1-based page).
func pagination(c *fiber.Ctx) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return page, limit, (page - 1) * limit
}

func formatTimeCSV(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// sendCSV writes rows as a downloadable CSV attachment.
func sendCSV(c *fiber.Ctx, filename string, header []string, rows [][]string) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))

	w := csv.NewWriter(c.Response().BodyWriter())
	if err := w.Write(header); err != nil {
		return apperror.Internal("failed to write export", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return apperror.Internal("failed to write export", err)
	}
	return nil
}

func exportFilename(kind string, now time.Time) string {
	return fmt.Sprintf("voyageshield-%s-%s.csv", kind, now.UTC().Format("2006-01-02"))
}
