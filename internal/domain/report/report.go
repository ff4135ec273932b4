// Package report converts paid-storage records into spreadsheet rows.
package report

import (
	"github.com/ramezanov/storkeep/internal/domain/model"
)

// headers are the report worksheet column titles, in write order.
var headers = []string{
	"Дата расчёта", "Коэф. логистики", "ID склада", "Склад", "Коэф. склада",
	"ID поставки", "ID размера", "Размер", "Баркод", "Предмет", "Бренд",
	"Артикул продавца", "Артикул WB", "Объём", "Способ расчёта", "Сумма хранения",
	"Кол-во товаров", "Код паллетоместа", "Кол-во паллет", "Дата первонач. расчёта",
	"Скидка лояльности", "Дата фиксации тарифа", "Дата понижения тарифа",
}

// Headers returns a copy of the worksheet column titles.
func Headers() []string {
	out := make([]string, len(headers))
	copy(out, headers)
	return out
}

// Columns is the number of report columns.
func Columns() int {
	return len(headers)
}

// Row flattens a single record into a sheet row in header order.
func Row(r model.StorageRecord) []interface{} {
	return []interface{}{
		r.Date,
		r.LogWarehouseCoef,
		r.OfficeID,
		r.Warehouse,
		r.WarehouseCoef,
		r.GiID,
		r.ChrtID,
		r.Size,
		r.Barcode,
		r.Subject,
		r.Brand,
		r.VendorCode,
		r.NmID,
		r.Volume,
		r.CalcType,
		r.WarehousePrice,
		r.BarcodesCount,
		r.PalletPlaceCode,
		r.PalletCount,
		r.OriginalDate,
		r.LoyaltyDiscount,
		r.TariffFixDate,
		r.TariffLowerDate,
	}
}

// Rows flattens records into sheet rows. Empty input yields no rows.
func Rows(records []model.StorageRecord) [][]interface{} {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row(r))
	}
	return rows
}
