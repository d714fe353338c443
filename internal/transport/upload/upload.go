package upload

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
	"github.com/alanyang/agentflow/internal/transport/respond"
)

const (
	formField         = "file"
	idempotencyHeader = "Idempotency-Key"
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

func Register(rg *gin.RouterGroup, svc *distsvc.Service, maxBytes int64) {
	rg.POST("", uploadFile(svc, maxBytes))
}

func uploadFile(svc *distsvc.Service, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

		fh, err := c.FormFile(formField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				respond.Message(c, http.StatusBadRequest, tooLargeMessage(maxBytes))
			default:
				respond.Message(c, http.StatusBadRequest, "No file uploaded")
			}
			return
		}
		if fh.Size > maxBytes {
			respond.Message(c, http.StatusBadRequest, tooLargeMessage(maxBytes))
			return
		}

		f, err := fh.Open()
		if err != nil {
			respond.Error(c, fmt.Errorf("open uploaded file: %w", err))
			return
		}
		defer f.Close()

		summary, err := svc.Upload(c.Request.Context(), distsvc.UploadInput{
			FileName:       fh.Filename,
			ContentType:    fh.Header.Get("Content-Type"),
			Body:           f,
			IdempotencyKey: c.GetHeader(idempotencyHeader),
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func tooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File is too large; the limit is %d MB", maxBytes>>20)
}
