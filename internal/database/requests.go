package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"arcshell/internal/workspace"
)

// Request kinds stored in the requests table.
const (
	KindSaved   = "saved"
	KindHistory = "history"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownKind is returned for request kinds other than saved and history.
	ErrUnknownKind = errors.New("unknown request kind")
)

// RequestRepo stores saved and history requests. It implements
// workspace.RequestReader.
type RequestRepo struct {
	db *sql.DB
}

func NewRequestRepo(db *sql.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

func checkKind(kind string) error {
	if kind != KindSaved && kind != KindHistory {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

// Read returns the request of kind with id.
func (r *RequestRepo) Read(ctx context.Context, kind, id string) (workspace.Request, error) {
	if err := checkKind(kind); err != nil {
		return workspace.Request{}, err
	}
	row := r.db.QueryRowContext(ctx, `
	SELECT id, kind, name, method, url, headers, payload, updated_at
	FROM requests WHERE kind = ? AND id = ?`, kind, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workspace.Request{}, fmt.Errorf("read %s request %q: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return workspace.Request{}, fmt.Errorf("read %s request %q: %w", kind, id, err)
	}
	return req, nil
}

// Upsert stores req under req.Type.
func (r *RequestRepo) Upsert(ctx context.Context, req workspace.Request) error {
	if err := checkKind(req.Type); err != nil {
		return err
	}
	if req.Updated.IsZero() {
		req.Updated = Now()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO requests(id, kind, name, method, url, headers, payload, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(kind, id) DO UPDATE SET
	 name=excluded.name,
	 method=excluded.method,
	 url=excluded.url,
	 headers=excluded.headers,
	 payload=excluded.payload,
	 updated_at=excluded.updated_at;
	`, req.ID, req.Type, req.Name, req.Method, req.URL, req.Headers, req.Payload, req.Updated.UTC())
	return err
}

// List returns up to limit requests of kind, newest first. A limit <= 0 lists all.
func (r *RequestRepo) List(ctx context.Context, kind string, limit int) ([]workspace.Request, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, kind, name, method, url, headers, payload, updated_at
	FROM requests WHERE kind = ? ORDER BY updated_at DESC, id LIMIT ?`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []workspace.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Delete removes the request of kind with id.
func (r *RequestRepo) Delete(ctx context.Context, kind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s request %q: %w", kind, id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (workspace.Request, error) {
	var req workspace.Request
	err := s.Scan(&req.ID, &req.Type, &req.Name, &req.Method, &req.URL, &req.Headers, &req.Payload, &req.Updated)
	return req, err
}
