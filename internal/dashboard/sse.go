package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/models"
)

// statsSource is what the event stream polls.
type statsSource interface {
	List() []models.Record
}

// handleSSE streams the summary counts, sending a "stats" event on connect
// and whenever the counts change. The index page uses it to keep its cards
// current without reloading.
func handleSSE(src statsSource, poll time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		last := lot.Summarize(src.List())
		writeSSE(c.Writer, "stats", last)
		c.Writer.Flush()

		ctx := c.Request.Context()
		ticker := time.NewTicker(poll)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				st := lot.Summarize(src.List())
				if st == last {
					continue
				}
				last = st
				writeSSE(c.Writer, "stats", st)
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
