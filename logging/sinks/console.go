package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fatih/color"

	"shakeout/server/logging"
)

type ConsoleSink struct {
	logger   *log.Logger
	useColor bool
	palette  map[logging.Severity]*color.Color
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	sink := &ConsoleSink{logger: log.New(w, "", log.LstdFlags), useColor: cfg.UseColor}
	if cfg.UseColor {
		sink.palette = map[logging.Severity]*color.Color{
			logging.SeverityDebug: color.New(color.FgHiBlack),
			logging.SeverityInfo:  color.New(color.FgCyan),
			logging.SeverityWarn:  color.New(color.FgYellow),
			logging.SeverityError: color.New(color.FgRed, color.Bold),
		}
		for _, c := range sink.palette {
			c.EnableColor()
		}
	}
	return sink
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	payload := formatPayload(event.Payload)
	targets := formatTargets(event.Targets)
	s.logger.Printf("[%s] tick=%d actor=%s severity=%s%s%s", event.Type, event.Tick, formatEntity(event.Actor), s.formatSeverity(event.Severity), targets, payload)
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func (s *ConsoleSink) formatSeverity(sev logging.Severity) string {
	label := sev.String()
	if !s.useColor {
		return label
	}
	if c, ok := s.palette[sev]; ok {
		return c.Sprint(label)
	}
	return label
}

func formatEntity(ref logging.EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}

func formatTargets(targets []logging.EntityRef) string {
	if len(targets) == 0 {
		return ""
	}
	parts := make([]string, 0, len(targets))
	for _, target := range targets {
		parts = append(parts, formatEntity(target))
	}
	return fmt.Sprintf(" targets=%s", strings.Join(parts, ","))
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return fmt.Sprintf(" payload=%s", data)
}
