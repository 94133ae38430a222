package templatestore

import "errors"

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrTemplateExists      = errors.New("destination already exists")
	ErrUnsupportedTemplate = errors.New("only .xlsx or .xls files can be stored as templates")
)
