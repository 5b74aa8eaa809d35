package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/writing-practice-api/internal/repository"
	"github.com/iliyamo/writing-practice-api/internal/service"
	"github.com/iliyamo/writing-practice-api/internal/validate"
)

// dbTimeout bounds every handler's trip to the store.
const dbTimeout = 5 * time.Second

// reqCtx detaches from client disconnects so a started write finishes or
// fails on its own; the timeout still applies.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request().Context()), dbTimeout)
}

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// NewHTTPErrorHandler maps domain errors onto status codes.  Anything it does
// not recognize is logged and hidden behind a generic 500.
func NewHTTPErrorHandler(log *charmlog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", "err", err)
		}
	}
}

func classify(err error) (int, errorBody) {
	var (
		ve validate.Errors
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Message: "validation failed", Errors: ve}
	case errors.Is(err, repository.ErrEmailExists):
		return http.StatusBadRequest, errorBody{Message: "user already exists"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, errorBody{Message: "invalid credentials"}
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, errorBody{Message: "forbidden"}
	case errors.Is(err, service.ErrNoIdeas):
		return http.StatusNotFound, errorBody{Message: "no ideas available"}
	case errors.Is(err, repository.ErrIdeaNotFound):
		return http.StatusNotFound, errorBody{Message: "idea not found"}
	case errors.Is(err, repository.ErrTextNotFound):
		return http.StatusNotFound, errorBody{Message: "text not found"}
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, errorBody{Message: "user not found"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, errorBody{Message: "idea is referenced by existing texts"}
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok || he.Code >= http.StatusInternalServerError {
			msg = http.StatusText(he.Code)
		}
		return he.Code, errorBody{Message: msg}
	default:
		return http.StatusInternalServerError, errorBody{Message: "internal server error"}
	}
}

// normalizer is implemented by request bodies that clean their fields
// (trimming, case folding) before the length rules run.
type normalizer interface {
	normalize()
}

// bindBody decodes the JSON body into dst and validates it.  A value of the
// wrong JSON type is reported under its field alongside every other failing
// field; any other decode failure is a bare 400.
func bindBody(c echo.Context, dst any) error {
	var typeErrs validate.Errors
	if err := c.Bind(dst); err != nil {
		var ute *json.UnmarshalTypeError
		if !errors.As(err, &ute) || ute.Field == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		typeErrs = validate.Errors{ute.Field: fmt.Sprintf("%s must be %s", ute.Field, jsonKind(ute.Type))}
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	err := c.Validate(dst)
	if typeErrs == nil {
		return err
	}
	var ve validate.Errors
	if errors.As(err, &ve) {
		for k, v := range ve {
			if _, seen := typeErrs[k]; !seen {
				typeErrs[k] = v
			}
		}
	}
	return typeErrs
}

// jsonKind names the JSON type a Go field expects.
func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}

// pathID reads the numeric :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, validate.Errors{"id": "id must be a positive integer"}
	}
	return id, nil
}

// bindErrors converts echo's query binding failures into field messages.
func bindErrors(errs []error, out validate.Errors) {
	for _, err := range errs {
		var be *echo.BindingError
		if errors.As(err, &be) {
			if _, seen := out[be.Field]; !seen {
				out[be.Field] = fmt.Sprintf("%s must be %s", be.Field, expected(be.Field))
			}
			continue
		}
		out["query"] = err.Error()
	}
}

func expected(field string) string {
	switch field {
	case "startDate", "endDate":
		return "an RFC 3339 timestamp or a YYYY-MM-DD date"
	default:
		return "a positive integer"
	}
}
