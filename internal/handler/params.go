package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// InvalidParamFormatError reports a query parameter that could not be bound
// to its declared type.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// RequiredParamError reports a required query parameter that is absent.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("query argument %s is required, but not found", e.ParamName)
}

// ListIdeasParams are the query parameters of GET /ideas.
type ListIdeasParams struct {
	Archived *bool
	Status   *string
	OwnerID  *string
	Tag      *string
	Q        *string
	PageSize *int
	Cursor   *string
}

// SearchIdeasParams are the query parameters of GET /search.
type SearchIdeasParams struct {
	Q               string
	Limit           *int
	OwnerID         *string
	IncludeArchived *bool
}

// bindListIdeasParams binds GET /ideas parameters in the order the API
// document declares them. The first failure is returned.
func bindListIdeasParams(r *http.Request) (ListIdeasParams, error) {
	var params ListIdeasParams
	query := r.URL.Query()

	if err := bindOptional(query, "archived", &params.Archived); err != nil {
		return params, err
	}
	if err := bindOptional(query, "status", &params.Status); err != nil {
		return params, err
	}
	if err := bindOptional(query, "owner_id", &params.OwnerID); err != nil {
		return params, err
	}
	if err := bindOptional(query, "tag", &params.Tag); err != nil {
		return params, err
	}
	if err := bindOptional(query, "q", &params.Q); err != nil {
		return params, err
	}
	if err := bindOptional(query, "page_size", &params.PageSize); err != nil {
		return params, err
	}
	if err := bindOptional(query, "cursor", &params.Cursor); err != nil {
		return params, err
	}
	return params, nil
}

// bindSearchIdeasParams binds GET /search parameters; q is required.
func bindSearchIdeasParams(r *http.Request) (SearchIdeasParams, error) {
	var params SearchIdeasParams
	query := r.URL.Query()

	if !query.Has("q") {
		return params, &RequiredParamError{ParamName: "q"}
	}
	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		return params, &InvalidParamFormatError{ParamName: "q", Err: err}
	}
	if err := bindOptional(query, "limit", &params.Limit); err != nil {
		return params, err
	}
	if err := bindOptional(query, "owner_id", &params.OwnerID); err != nil {
		return params, err
	}
	if err := bindOptional(query, "include_archived", &params.IncludeArchived); err != nil {
		return params, err
	}
	return params, nil
}

func bindOptional(query url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
		return &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return nil
}
