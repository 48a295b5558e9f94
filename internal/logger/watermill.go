package logger

import (
	"github.com/ThreeDotsLabs/watermill"
)

type watermillAdapter struct {
	fields Fields
}

// NewWatermillAdapter routes Watermill's internal logging (AMQP connection
// handling, reconnects, publish confirms) through the global logger.
// Trace messages are logged at debug level.
func NewWatermillAdapter() watermill.LoggerAdapter {
	return &watermillAdapter{}
}

func (a *watermillAdapter) merge(fields watermill.LogFields) Fields {
	if len(a.fields) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(Fields, len(a.fields)+len(fields))
	for k, v := range a.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (a *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	merged := a.merge(fields)
	if err != nil {
		if merged == nil {
			merged = Fields{}
		}
		merged["error"] = err.Error()
	}
	write(Error, msg, merged)
}

func (a *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	write(Info, msg, a.merge(fields))
}

func (a *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	write(Debug, msg, a.merge(fields))
}

func (a *watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	write(Debug, msg, a.merge(fields))
}

func (a *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillAdapter{fields: a.merge(fields)}
}
