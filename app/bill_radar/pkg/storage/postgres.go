package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"

	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/config"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/model"
)

// Storage 分析结果归档
type Storage struct {
	db *sql.DB
}

// Record 一条归档的分析结果
type Record struct {
	ID        int               `json:"id"`
	RunID     int               `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Entry     model.DigestEntry `json:"entry"`
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db)
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// New 使用已有连接创建 Storage，不做建表
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS report_runs (
		id SERIAL PRIMARY KEY,
		keywords TEXT[],
		start_date TEXT,
		end_date TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS bill_analyses (
		id SERIAL PRIMARY KEY,
		run_id INTEGER REFERENCES report_runs(id),
		bill_id TEXT,
		bill_no TEXT,
		title TEXT,
		proposer TEXT,
		propose_date TEXT,
		committee TEXT,
		proc_result TEXT,
		detail_link TEXT,
		keyword TEXT,
		summary TEXT,
		content TEXT,
		impact_level TEXT,
		impact_areas TEXT[],
		impact_details JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, query := range schemaQueries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// CreateRun 创建本次运行记录
func (s *Storage) CreateRun(ctx context.Context, keywords []string, startDate, endDate string) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO report_runs (keywords, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING id`,
		pq.Array(keywords), startDate, endDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report run: %w", err)
	}
	return id, nil
}

// SaveAnalysis 保存一条 (议案, 分析) 记录
func (s *Storage) SaveAnalysis(ctx context.Context, runID int, entry model.DigestEntry) error {
	details, err := json.Marshal(entry.Analysis.Impact.Details)
	if err != nil {
		return fmt.Errorf("failed to encode impact details: %w", err)
	}

	b, a := entry.Bill, entry.Analysis
	areas := make([]string, len(a.Impact.Areas))
	for i, area := range a.Impact.Areas {
		areas[i] = sanitize(area)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bill_analyses (run_id, bill_id, bill_no, title, proposer, propose_date, committee,
			proc_result, detail_link, keyword, summary, content, impact_level, impact_areas, impact_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		runID, b.BillID, b.BillNo, sanitize(b.Title), sanitize(b.Proposer), b.ProposeDate, b.Committee,
		b.ProcResult, b.DetailLink, b.Keyword, sanitize(a.Summary), sanitize(a.Content),
		a.Impact.Level.String(), pq.Array(areas), sanitize(string(details)))
	if err != nil {
		return fmt.Errorf("failed to insert bill analysis: %w", err)
	}
	return nil
}

// ListAnalyses 按时间倒序返回最近的分析结果
func (s *Storage) ListAnalyses(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, bill_id, bill_no, title, proposer, propose_date, committee, proc_result,
			detail_link, keyword, summary, content, impact_level, impact_areas, impact_details, created_at
		FROM bill_analyses
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill analyses: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			level   string
			details []byte
		)
		b, a := &r.Entry.Bill, &r.Entry.Analysis
		if err := rows.Scan(&r.ID, &r.RunID, &b.BillID, &b.BillNo, &b.Title, &b.Proposer, &b.ProposeDate,
			&b.Committee, &b.ProcResult, &b.DetailLink, &b.Keyword, &a.Summary, &a.Content,
			&level, pq.Array(&a.Impact.Areas), &details, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill analysis: %w", err)
		}
		a.Impact.Level = model.ParseImpactLevel(level)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &a.Impact.Details); err != nil {
				return nil, fmt.Errorf("failed to decode impact details: %w", err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// sanitize 移除无效的 UTF-8 字符和 NULL 字节，PostgreSQL 文本字段不支持 NULL 字节
func sanitize(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r == utf8.RuneError {
				continue
			}
			v = append(v, r)
		}
		s = string(v)
	}
	return removeNullBytes(s)
}

func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
