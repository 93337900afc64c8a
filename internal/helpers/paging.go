package helpers

import (
	"strconv"
	"strings"

	internaldto "github.com/udistrital/marketplace_mid/internal/dto"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// ParsePageSize convierte los parámetros de paginación a enteros aplicando defaults y tope.
func ParsePageSize(pageStr, sizeStr string) (int, int) {
	page := defaultPage
	size := defaultPageSize

	if v, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(sizeStr)); err == nil && v > 0 {
		size = v
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// Paginate recorta items a la página pedida.
func Paginate[T any](items []T, page, size int) internaldto.PageDTO[T] {
	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return internaldto.PageDTO[T]{
		Items: append([]T{}, items[start:end]...),
		Page:  page,
		Size:  size,
		Total: int64(total),
	}
}
