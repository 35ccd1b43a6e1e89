package webapp

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

func (wa *WebApp) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (wa *WebApp) listRoots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wa.Engine.Roots())
}

type addRootRequest struct {
	Alias string `json:"alias"`
	Path  string `json:"path"`
}

func (wa *WebApp) addRoot(w http.ResponseWriter, r *http.Request) {
	var req addRootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	root, err := wa.Engine.AddRoot(r.Context(), req.Alias, req.Path)
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, root)
}

func (wa *WebApp) removeRoot(w http.ResponseWriter, r *http.Request) {
	if err := wa.Engine.RemoveRoot(r.Context(), chi.URLParam(r, "alias")); err != nil {
		wa.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (wa *WebApp) enqueueScan(w http.ResponseWriter, r *http.Request) {
	var opts *models.ScanOptions
	if r.ContentLength > 0 {
		opts = &models.ScanOptions{}
		if err := json.NewDecoder(r.Body).Decode(opts); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}

	job, err := wa.Engine.EnqueueScan(r.Context(), chi.URLParam(r, "alias"), opts)
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (wa *WebApp) report(w http.ResponseWriter, r *http.Request) {
	report, err := wa.Engine.Report(chi.URLParam(r, "alias"))
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (wa *WebApp) reports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wa.Engine.Reports())
}

func (wa *WebApp) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := wa.Engine.Stats(chi.URLParam(r, "alias"))
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (wa *WebApp) dirSizes(w http.ResponseWriter, r *http.Request) {
	dirs, err := wa.Engine.DirSizes(chi.URLParam(r, "alias"))
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	if dirs == nil {
		dirs = []models.DirStat{}
	}
	writeJSON(w, http.StatusOK, dirs)
}

type searchResponse struct {
	Count   int                 `json:"count"`
	Records []models.FileRecord `json:"records"`
}

func (wa *WebApp) search(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := wa.Engine.Search(q)
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	if records == nil {
		records = []models.FileRecord{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Count: len(records), Records: records})
}

func (wa *WebApp) exportCSV(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit == 0 {
		q.Limit = math.MaxInt
	}
	records, err := wa.Engine.Search(q)
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="catalogue.csv"`)
	if err := app.WriteCSV(w, records); err != nil {
		wa.Log.Errorw("csv export failed", "err", err)
	}
}

func (wa *WebApp) listJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wa.Engine.Jobs())
}

func (wa *WebApp) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := wa.Engine.Job(chi.URLParam(r, "id"))
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (wa *WebApp) cancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := wa.Engine.CancelScan(id); err != nil {
		wa.writeEngineError(w, err)
		return
	}
	job, err := wa.Engine.Job(id)
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (wa *WebApp) clearJobs(w http.ResponseWriter, r *http.Request) {
	n, err := wa.Engine.ClearFinishedJobs(r.Context())
	if err != nil {
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (wa *WebApp) listSchedules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wa.Engine.Schedules())
}

type setScheduleRequest struct {
	Expr string `json:"expr"`
}

func (wa *WebApp) setSchedule(w http.ResponseWriter, r *http.Request) {
	var req setScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	alias := chi.URLParam(r, "alias")
	if err := wa.Engine.Schedule(alias, req.Expr); err != nil {
		if errors.Is(err, app.ErrUnknownRoot) {
			wa.writeEngineError(w, err)
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	for _, info := range wa.Engine.Schedules() {
		if info.Root == alias {
			writeJSON(w, http.StatusOK, info)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

func (wa *WebApp) removeSchedule(w http.ResponseWriter, r *http.Request) {
	if err := wa.Engine.Unschedule(chi.URLParam(r, "alias")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (wa *WebApp) exportSnapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="catalogue-snapshot.json"`)
	if err := wa.Engine.WriteSnapshot(w); err != nil {
		wa.Log.Errorw("snapshot export failed", "err", err)
	}
}

func (wa *WebApp) importSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := wa.Engine.ImportSnapshot(r.Context(), r.Body); err != nil {
		if strings.Contains(err.Error(), "decode") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wa.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

// parseQuery builds a search query from URL parameters. Sizes accept
// human friendly forms like 200MB, times are RFC3339.
func parseQuery(r *http.Request) (models.Query, error) {
	var q models.Query
	vals := r.URL.Query()

	q.Name = vals.Get("name")
	q.Exts = splitParam(vals["ext"])
	q.Roots = splitParam(vals["root"])

	var err error
	if q.MinSize, err = parseSize(vals.Get("min_size")); err != nil {
		return q, &models.QueryError{Field: "min_size", Reason: err.Error()}
	}
	if q.MaxSize, err = parseSize(vals.Get("max_size")); err != nil {
		return q, &models.QueryError{Field: "max_size", Reason: err.Error()}
	}

	switch vals.Get("only") {
	case "":
	case "files":
		q.OnlyFiles = true
	case "dirs":
		q.OnlyDirs = true
	default:
		return q, &models.QueryError{Field: "only", Reason: "must be files or dirs"}
	}

	if q.ModifiedAfter, err = parseTime(vals.Get("modified_after")); err != nil {
		return q, &models.QueryError{Field: "modified_after", Reason: "not an RFC3339 time"}
	}
	if q.ModifiedBefore, err = parseTime(vals.Get("modified_before")); err != nil {
		return q, &models.QueryError{Field: "modified_before", Reason: "not an RFC3339 time"}
	}

	if q.Offset, err = parseInt(vals.Get("offset")); err != nil {
		return q, &models.QueryError{Field: "offset", Reason: "not a number"}
	}
	if q.Limit, err = parseInt(vals.Get("limit")); err != nil {
		return q, &models.QueryError{Field: "limit", Reason: "not a number"}
	}
	return q, nil
}

func splitParam(params []string) []string {
	var out []string
	for _, p := range params {
		for _, part := range strings.Split(p, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
