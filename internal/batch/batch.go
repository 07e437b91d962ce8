// Package batch imports every statement file found in a directory. Files are
// grouped by the bank account named in their filename and imported
// concurrently; one failing file never stops the others.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/importer"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"

	"golang.org/x/sync/errgroup"
)

// Extensions lists the statement file types picked up from a directory.
var Extensions = []string{".csv", ".txt", ".prn", ".xlsx", ".xls", ".xml"}

// StatementImporter is the import operation batch drives.
type StatementImporter interface {
	ImportStatement(ctx context.Context, req importer.ImportRequest) (*importer.ImportResult, error)
}

// FileGroup is the set of files that belong to one bank account.
type FileGroup struct {
	AccountID string
	Files     []string
	// Period spans the periods found in the filenames. It is zero when no
	// filename carries one.
	Period models.DateRange
}

// Options control a batch run.
type Options struct {
	ParserConfigID string
	Actor          string
	// Workers bounds concurrent imports. Values below 1 mean 1.
	Workers int
}

// Outcome is the result of importing one file.
type Outcome struct {
	File        string           `json:"file"`
	AccountID   string           `json:"bank_account_id"`
	StatementID string           `json:"statement_id,omitempty"`
	Items       int              `json:"items"`
	Warnings    []models.Warning `json:"warnings,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Failed reports whether the file was rejected.
func (o Outcome) Failed() bool {
	return o.Error != ""
}

// Importer plans and runs directory imports.
type Importer struct {
	imports StatementImporter
	logger  logging.Logger
}

// NewImporter creates a new Importer.
func NewImporter(imports StatementImporter, logger logging.Logger) *Importer {
	return &Importer{imports: imports, logger: logging.OrDefault(logger)}
}

// Plan lists the statement files of dir grouped by account, sorted by
// account id.
func (b *Importer) Plan(dir string) ([]FileGroup, error) {
	files, err := fileutils.ListFilesWithExtension(dir, Extensions...)
	if err != nil {
		return nil, err
	}
	return b.GroupFilesByAccount(files), nil
}

// GroupFilesByAccount groups files by the account id in their names.
func (b *Importer) GroupFilesByAccount(files []string) []FileGroup {
	groups := make(map[string]*FileGroup)
	for _, file := range files {
		name := ParseFilename(file)
		group, ok := groups[name.AccountID]
		if !ok {
			group = &FileGroup{AccountID: name.AccountID}
			groups[name.AccountID] = group
		}
		group.Files = append(group.Files, file)
		group.Period = group.Period.Merge(name.Period)

		b.logger.Debug("File mapped to account",
			logging.F(logging.FieldFile, filepath.Base(file)),
			logging.F(logging.FieldBankAccountID, name.AccountID))
	}

	out := make([]FileGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })

	b.logger.Info("Grouped files into account groups",
		logging.F(logging.FieldCount, len(files)),
		logging.F("groups", len(out)))
	return out
}

// Filename is what a statement filename says about its content.
type Filename struct {
	AccountID string
	Period    models.DateRange
}

// ParseFilename reads names of the form
// {account}_{yyyy-MM-dd}_{yyyy-MM-dd}[_{anything}].{ext}. A name without
// two dates yields only the account, which is the part before the first
// underscore.
func ParseFilename(path string) Filename {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, "_")
	name := Filename{AccountID: parts[0]}
	if len(parts) < 3 {
		return name
	}
	start, err1 := dateutils.ParseWithPattern(parts[1], "yyyy-MM-dd")
	end, err2 := dateutils.ParseWithPattern(parts[2], "yyyy-MM-dd")
	if err1 == nil && err2 == nil {
		name.Period = models.NewDateRange(start, end)
	}
	return name
}

// Run imports every file of every group. Outcomes are returned in file
// order. The error is non-nil only when ctx ends early.
func (b *Importer) Run(ctx context.Context, groups []FileGroup, opts Options) ([]Outcome, error) {
	type job struct {
		index   int
		account string
		file    string
	}
	var jobs []job
	for _, g := range groups {
		b.warnOverlaps(g)
		for _, f := range g.Files {
			jobs = append(jobs, job{index: len(jobs), account: g.AccountID, file: f})
		}
	}

	outcomes := make([]Outcome, len(jobs))
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(opts.Workers, 1))
	for _, j := range jobs {
		j := j // per-iteration copy; go.mod targets go1.21 (pre-1.22 loopvar semantics)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := b.importFile(ctx, j.account, j.file, opts)
			mu.Lock()
			outcomes[j.index] = out
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return outcomes, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	b.logger.Info("Batch import finished",
		logging.F(logging.FieldCount, len(outcomes)),
		logging.F("failed", failed))
	return outcomes, nil
}

func (b *Importer) importFile(ctx context.Context, accountID, file string, opts Options) Outcome {
	out := Outcome{File: filepath.Base(file), AccountID: accountID}
	logger := b.logger.WithFields(
		logging.F(logging.FieldFile, out.File),
		logging.F(logging.FieldBankAccountID, accountID))

	raw, err := fileutils.ReadFile(file)
	if err != nil {
		out.Error = err.Error()
		logger.WithError(err).Error("Failed to read statement file")
		return out
	}
	name := ParseFilename(file)
	res, err := b.imports.ImportStatement(ctx, importer.ImportRequest{
		BankAccountID:  accountID,
		ParserConfigID: opts.ParserConfigID,
		PeriodStart:    name.Period.Start,
		PeriodEnd:      name.Period.End,
		Filename:       out.File,
		Raw:            raw,
		Actor:          opts.Actor,
	})
	if err != nil {
		out.Error = err.Error()
		logger.WithError(err).Error("Failed to import statement file")
		return out
	}
	out.StatementID = res.Statement.ID
	out.Items = len(res.Items)
	out.Warnings = res.Warnings
	return out
}

// warnOverlaps logs pairs of files in a group whose filename periods
// overlap. Both files are still imported.
func (b *Importer) warnOverlaps(g FileGroup) {
	for i := 0; i < len(g.Files)-1; i++ {
		a := ParseFilename(g.Files[i]).Period
		if !a.Valid() {
			continue
		}
		for j := i + 1; j < len(g.Files); j++ {
			c := ParseFilename(g.Files[j]).Period
			if !c.Valid() || c.Start.After(a.End) || a.Start.After(c.End) {
				continue
			}
			b.logger.Warn("Statement files have overlapping periods",
				logging.F(logging.FieldBankAccountID, g.AccountID),
				logging.F("first", filepath.Base(g.Files[i])),
				logging.F("second", filepath.Base(g.Files[j])),
				logging.F("overlap", fmt.Sprintf("%s..%s", laterOf(a, c), earlierOf(a, c))))
		}
	}
}

func laterOf(a, c models.DateRange) string {
	if a.Start.After(c.Start) {
		return dateutils.ToISODate(a.Start)
	}
	return dateutils.ToISODate(c.Start)
}

func earlierOf(a, c models.DateRange) string {
	if a.End.Before(c.End) {
		return dateutils.ToISODate(a.End)
	}
	return dateutils.ToISODate(c.End)
}
