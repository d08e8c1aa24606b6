package model

import (
	"encoding/json"

	"github.com/matzehuels/grunt/pkg/axis"
	"github.com/matzehuels/grunt/pkg/borders"
	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/fill"
)

// Params3D aggregates everything needed to generate a model. It is immutable
// and shared by pointer between regenerations; axes may be shared between
// the X and Y slots and across Params3D values.
type Params3D struct {
	axisX      *axis.Axis
	axisY      *axis.Axis
	borders    *borders.Params
	fillValues []*fill.Values
}

// NewParams3D builds model parameters. Axes and borders are required.
func NewParams3D(axisX, axisY *axis.Axis, b *borders.Params, fillValues ...*fill.Values) (*Params3D, error) {
	if axisX == nil || axisY == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "both axes are required")
	}
	if b == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "border parameters are required")
	}
	for i, fv := range fillValues {
		if fv == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "fill values %d are nil", i)
		}
	}
	return &Params3D{
		axisX:      axisX,
		axisY:      axisY,
		borders:    b,
		fillValues: append([]*fill.Values(nil), fillValues...),
	}, nil
}

// DefaultParams uses the default axis for X and Y, the default borders and
// the default fill values.
func DefaultParams() *Params3D {
	ax := axis.Default()
	p, _ := NewParams3D(ax, ax, borders.Default(), fill.Default())
	return p
}

// AxisX returns the X axis. Its blocks are the layer columns.
func (p *Params3D) AxisX() *axis.Axis { return p.axisX }

// AxisY returns the Y axis. Its blocks are the layer rows.
func (p *Params3D) AxisY() *axis.Axis { return p.axisY }

// Borders returns the border parameters.
func (p *Params3D) Borders() *borders.Params { return p.borders }

// FillValues returns a copy of the fill value list.
func (p *Params3D) FillValues() []*fill.Values { return append([]*fill.Values(nil), p.fillValues...) }

// Rows returns the number of rows of every layer.
func (p *Params3D) Rows() int { return p.axisY.BlocksCount() }

// Cols returns the number of columns of every layer.
func (p *Params3D) Cols() int { return p.axisX.BlocksCount() }

// Cells returns the number of values a generated model holds:
// rows × cols × number of borders.
func (p *Params3D) Cells() int64 {
	return int64(p.Rows()) * int64(p.Cols()) * int64(p.borders.NumberOfBorders())
}

type params3DJSON struct {
	AxisX      *axis.Axis      `json:"axis_x"`
	AxisY      *axis.Axis      `json:"axis_y"`
	Borders    *borders.Params `json:"borders"`
	FillValues []*fill.Values  `json:"fill_values"`
}

// MarshalJSON encodes the parameters.
func (p *Params3D) MarshalJSON() ([]byte, error) {
	fv := p.fillValues
	if fv == nil {
		fv = []*fill.Values{}
	}
	return json.Marshal(params3DJSON{
		AxisX:      p.axisX,
		AxisY:      p.axisY,
		Borders:    p.borders,
		FillValues: fv,
	})
}

// UnmarshalJSON decodes and validates parameters written by MarshalJSON.
func (p *Params3D) UnmarshalJSON(data []byte) error {
	var in params3DJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out, err := NewParams3D(in.AxisX, in.AxisY, in.Borders, in.FillValues...)
	if err != nil {
		return err
	}
	*p = *out
	return nil
}
