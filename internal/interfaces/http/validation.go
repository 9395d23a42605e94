package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// newValidator usa los nombres JSON en los mensajes de error.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON parsea el body y valida las etiquetas `validate`. Si devuelve false ya respondió 400.
func bindJSON(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := validate.Struct(out); err != nil {
		return false, badRequest(c, "VALIDATION", validationMessage(err))
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "datos inválidos"
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", field, e.Tag(), e.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// pagination lee limit/offset con límite 20 por defecto y 100 como máximo.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// idParam lee un ID numérico positivo de la ruta.
func idParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

// dateRange lee from/to (RFC3339 o YYYY-MM-DD). "to" en formato fecha es inclusivo: se corre al día siguiente.
func dateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	parse := func(raw string, endOfDay bool) (*time.Time, error) {
		if raw == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t, nil
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("fecha inválida %q", raw)
		}
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}
	if from, err = parse(c.Query("from"), false); err != nil {
		return nil, nil, err
	}
	if to, err = parse(c.Query("to"), true); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
