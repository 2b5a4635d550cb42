// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package trace is a thin wrapper over the global OpenTelemetry tracer provider.
package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for one instrumentation scope.
type Tracer interface {
	// Start begins an internal span with optional attributes.
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

type tracer struct {
	scope string
}

// New returns a Tracer that resolves the global provider on every Start, so a
// provider installed after construction is still used.
func New(scope string) Tracer {
	return &tracer{scope: scope}
}

func (tr *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, sp := otel.Tracer(tr.scope).Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	if len(attrs) > 0 {
		sp.SetAttributes(attrs...)
	}

	return ctx, sp
}

// RecordError marks the span as failed. A nil error is ignored.
func RecordError(sp trace.Span, err error) {
	if err == nil {
		return
	}

	sp.RecordError(err)
	sp.SetStatus(codes.Error, err.Error())
}

func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
