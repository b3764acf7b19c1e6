package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/labstack/echo/v4"

	"ucdp/internal/config"
	"ucdp/internal/engine"
	"ucdp/internal/models"
)

// state is swapped in whole once the background load finishes.
type state struct {
	ds  *engine.Dataset
	err error
}

type Handler struct {
	state    atomic.Pointer[state]
	defaults config.DashboardConfig
}

// NewHandler returns a handler with no data; every /api route answers 503
// until SetData or SetLoadError is called.
func NewHandler(defaults config.DashboardConfig) *Handler {
	return &Handler{defaults: defaults}
}

func (h *Handler) SetData(ds *engine.Dataset) {
	h.state.Store(&state{ds: ds})
}

func (h *Handler) SetLoadError(err error) {
	h.state.Store(&state{err: err})
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/years", h.GetYears)
	api.GET("/regions", h.GetRegions)
	api.GET("/countries", h.GetCountries)
	api.GET("/records", h.GetRecords)
	api.GET("/trends", h.GetTrend)
	api.GET("/race", h.GetBarRace)
	api.GET("/regions/compare", h.GetRegionComparison)
	api.GET("/regions/:region/countries", h.GetCountryComparison)
	api.GET("/map", h.GetMapFrames)
}

// --- HELPERS ---

func (h *Handler) dataset() (*engine.Dataset, error) {
	st := h.state.Load()
	switch {
	case st == nil:
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is still loading")
	case st.err != nil:
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset unavailable: "+st.err.Error()).SetInternal(st.err)
	}
	return st.ds, nil
}

func badRequest(err error) error {
	var be *echo.BindingError
	if errors.As(err, &be) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", be.Field, be.Values)).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// filterSpec reads start, end, country (repeatable) and region. A missing
// bound falls back to the configured default window clamped to the data.
func (h *Handler) filterSpec(c echo.Context, ds *engine.Dataset) (models.FilterSpec, error) {
	var spec models.FilterSpec
	if lo, hi, err := ds.YearRange(); err == nil {
		spec.Start, spec.End = h.defaults.DefaultWindow(lo, hi)
	} else {
		spec.Start, spec.End = h.defaults.DefaultStart, h.defaults.DefaultEnd
	}

	err := echo.QueryParamsBinder(c).
		Int("start", &spec.Start).
		Int("end", &spec.End).
		Strings("country", &spec.Countries).
		String("region", &spec.Region).
		BindError()
	if err != nil {
		return spec, badRequest(err)
	}
	return spec, nil
}

func violenceType(c echo.Context) (models.ViolenceType, error) {
	vt, err := models.ParseViolenceType(c.QueryParam("type"))
	if err != nil {
		return vt, badRequest(err)
	}
	return vt, nil
}

func wantsArrow(c echo.Context) bool {
	return c.QueryParam("format") == "arrow"
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	st := h.state.Load()
	body := map[string]interface{}{"status": "ok", "ready": st != nil && st.err == nil}
	if st != nil && st.err != nil {
		body["error"] = st.err.Error()
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) GetYears(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	lo, hi, err := ds.YearRange()
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	start, end := h.defaults.DefaultWindow(lo, hi)
	return c.JSON(http.StatusOK, models.YearBounds{Min: lo, Max: hi, DefaultStart: start, DefaultEnd: end})
}

func (h *Handler) GetRegions(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.Regions())
}

// countries, optionally scoped to ?region=
func (h *Handler) GetCountries(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	if region := c.QueryParam("region"); region != "" {
		return c.JSON(http.StatusOK, ds.CountriesByRegion(region))
	}
	return c.JSON(http.StatusOK, ds.Countries())
}

func (h *Handler) GetRecords(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	spec, err := h.filterSpec(c, ds)
	if err != nil {
		return err
	}

	sub := engine.Query(ds, spec)
	total := sub.Len()
	limit, offset := getPaginationParams(c, total)

	page := []models.ConflictRecord{}
	if offset < total {
		end := min(offset+limit, total)
		page = make([]models.ConflictRecord, 0, end-offset)
		for i := offset; i < end; i++ {
			page = append(page, sub.Record(i))
		}
	}

	if wantsArrow(c) {
		return recordsArrow(c, page)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   page,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetTrend(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	vt, err := violenceType(c)
	if err != nil {
		return err
	}
	spec, err := h.filterSpec(c, ds)
	if err != nil {
		return err
	}

	trend := engine.BuildTrend(ds, spec, vt)
	if wantsArrow(c) {
		return yearTotalsArrow(c, trend.Series)
	}
	return c.JSON(http.StatusOK, trend)
}

func (h *Handler) GetBarRace(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	spec, err := h.filterSpec(c, ds)
	if err != nil {
		return err
	}

	opts := engine.RaceOptions{TopN: h.defaults.TopN, StepsPerYear: h.defaults.StepsPerYear}
	var mode string
	err = echo.QueryParamsBinder(c).
		Int("top", &opts.TopN).
		Int("steps", &opts.StepsPerYear).
		String("mode", &mode).
		BindError()
	if err != nil {
		return badRequest(err)
	}
	if opts.TopN < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "top must be positive")
	}
	if opts.StepsPerYear < 1 || opts.StepsPerYear > engine.MaxStepsPerYear {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("steps must be between 1 and %d", engine.MaxStepsPerYear))
	}
	if opts.Mode, err = engine.ParseTopNMode(mode); err != nil {
		return badRequest(err)
	}

	race := engine.BuildBarRace(ds, spec, opts)
	if wantsArrow(c) {
		if race.StepsPerYear == 1 {
			return meltedArrow(c, race.Rows)
		}
		return framesArrow(c, race.Frames)
	}
	return c.JSON(http.StatusOK, race)
}

// regions vs regions; ?region= may repeat
func (h *Handler) GetRegionComparison(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	vt, err := violenceType(c)
	if err != nil {
		return err
	}
	spec, err := h.filterSpec(c, ds)
	if err != nil {
		return err
	}
	var regions []string
	if err := echo.QueryParamsBinder(c).Strings("region", &regions).BindError(); err != nil {
		return badRequest(err)
	}

	cmp := engine.BuildRegionComparison(ds, spec, vt, regions)
	if wantsArrow(c) {
		return seriesArrow(c, cmp.Series)
	}
	return c.JSON(http.StatusOK, cmp)
}

// countries within one region
func (h *Handler) GetCountryComparison(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	vt, err := violenceType(c)
	if err != nil {
		return err
	}
	spec, err := h.filterSpec(c, ds)
	if err != nil {
		return err
	}
	spec.Region = c.Param("region")
	if unescaped, err := url.PathUnescape(spec.Region); err == nil {
		spec.Region = unescaped
	}

	top := h.defaults.RegionTopN
	if err := echo.QueryParamsBinder(c).Int("top", &top).BindError(); err != nil {
		return badRequest(err)
	}
	if top < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "top must be positive")
	}

	cmp := engine.BuildCountryComparison(ds, spec, vt, top)
	if wantsArrow(c) {
		return seriesArrow(c, cmp.Series)
	}
	return c.JSON(http.StatusOK, cmp)
}

func (h *Handler) GetMapFrames(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	vt, err := violenceType(c)
	if err != nil {
		return err
	}
	spec, err := h.filterSpec(c, ds)
	if err != nil {
		return err
	}

	frames := engine.BuildMapFrames(ds, spec, vt)
	if wantsArrow(c) {
		return mapFramesArrow(c, frames)
	}
	return c.JSON(http.StatusOK, frames)
}
