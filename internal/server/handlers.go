package server

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"yashubustudio/sedefinder/finder"
)

type handlers struct {
	svc     *finder.Service
	metrics *queryMetrics
	logger  *log.Logger
}

// datasetVersion stamps every API response with the version that answered it.
func (h *handlers) datasetVersion(c fiber.Ctx) error {
	err := c.Next()
	if v := h.svc.Version(); v != "" {
		c.Set(VersionHeader, v)
	}
	return err
}

func (h *handlers) requireDataset(c fiber.Ctx) error {
	if !h.svc.Loaded() {
		return jsonError(c, fiber.StatusServiceUnavailable, "no dataset loaded")
	}
	return c.Next()
}

// queryLimit reads the optional limit parameter. Zero means the configured
// display limit.
func (h *handlers) queryLimit(c fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}
	if ceiling := h.svc.Config().MaxCandidates; n > ceiling {
		n = ceiling
	}
	return n, nil
}

func (h *handlers) health(c fiber.Ctx) error {
	body := fiber.Map{
		"status": "ok",
		"loaded": h.svc.Loaded(),
	}
	if idx := h.svc.Index(); idx != nil {
		body["version"] = idx.Version()
		body["rows"] = idx.Len()
		body["source"] = h.svc.Source()
		body["loadedAt"] = h.svc.LoadedAt().Format(time.RFC3339)
	}
	return c.JSON(body)
}

func (h *handlers) entities(c fiber.Ctx) error {
	limit, err := h.queryLimit(c)
	if err != nil {
		return err
	}
	start := time.Now()
	out := h.svc.SearchEntities(c.Query("q"), limit)
	h.metrics.observe(finder.KindEntity, start, len(out))
	return jsonSuccess(c, orEmpty(out))
}

func (h *handlers) selectEntity(c fiber.Ctx) error {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		return jsonError(c, fiber.StatusBadRequest, "key is required")
	}
	var (
		sel finder.Selection
		ok  bool
	)
	if raw := strings.TrimSpace(c.Query("pos")); raw != "" {
		pos, err := strconv.Atoi(raw)
		if err != nil || pos < 0 {
			return jsonError(c, fiber.StatusBadRequest, "invalid pos")
		}
		sel, ok = h.svc.SelectEntityAt(finder.EntityKey(key), pos)
	} else {
		sel, ok = h.svc.SelectEntity(finder.EntityKey(key))
	}
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "entity not found")
	}
	return jsonSuccess(c, sel.Table())
}

func (h *handlers) categories(c fiber.Ctx) error {
	limit, err := h.queryLimit(c)
	if err != nil {
		return err
	}
	start := time.Now()
	out := h.svc.SearchCategories(c.Query("q"), limit)
	h.metrics.observe(finder.KindCategory, start, len(out))
	return jsonSuccess(c, orEmpty(out))
}

func (h *handlers) selectCategory(c fiber.Ctx) error {
	base := strings.TrimSpace(c.Query("base"))
	if base == "" {
		return jsonError(c, fiber.StatusBadRequest, "base is required")
	}
	sel, ok := h.svc.SelectCategory(base)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "category not found")
	}
	return jsonSuccess(c, sel.Table())
}

func (h *handlers) summary(c fiber.Ctx) error {
	return jsonSuccess(c, h.svc.Summary())
}

func (h *handlers) municipalities(c fiber.Ctx) error {
	return jsonSuccess(c, orEmpty(h.svc.Municipalities()))
}

func (h *handlers) municipalityRows(c fiber.Ctx) error {
	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		return jsonError(c, fiber.StatusBadRequest, "name is required")
	}
	return jsonSuccess(c, h.svc.FilterByMunicipality(name).Table())
}

func (h *handlers) reload(c fiber.Ctx) error {
	if err := h.svc.Reload(); err != nil {
		h.metrics.reloads.WithLabelValues("error").Inc()
		h.logf("Reload failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	h.metrics.reloads.WithLabelValues("ok").Inc()
	return jsonSuccess(c, fiber.Map{
		"version": h.svc.Version(),
		"rows":    h.svc.Index().Len(),
	})
}

func (h *handlers) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
