package http

import (
	"bufio"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"talentboard/internal/config"
	"talentboard/internal/store"
)

// eventsHandler streams store change events to the dashboard as
// server-sent events, so every connected view re-renders from the
// same feed the in-process subscribers see.
func eventsHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)
	cfg := c.Locals("config").(*config.Config)

	buffer := cfg.Events.BufferSize
	if buffer <= 0 {
		buffer = 64
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		events, cancel := st.Subscribe(buffer)
		defer cancel()

		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if _, err := w.WriteString("event: " + string(ev.Type) + "\n"); err != nil {
					return
				}
				if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					// Client went away; drop the subscription.
					return
				}
			case <-keepalive.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}
