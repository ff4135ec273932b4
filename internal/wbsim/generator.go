package wbsim

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/ramezanov/storkeep/internal/domain/model"
	"github.com/ramezanov/storkeep/internal/domain/period"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	priceBandDivisor   = 4
)

// Constants for storage price generation ranges, rubles per day.
const (
	smallItemMin     = 0.05
	smallItemRange   = 0.4
	regularItemMin   = 0.4
	regularItemRange = 2.0
	bulkyItemMin     = 2.0
	bulkyItemRange   = 8.0
	palletMin        = 25.0
	palletRange      = 30.0
)

// Constants for price band cases.
const (
	caseSmallItem   = 0
	caseRegularItem = 1
	caseBulkyItem   = 2
	casePallet      = 3
)

// Warehouses and subjects the simulator draws from.
var (
	warehouses = []string{"Коледино", "Электросталь", "Казань", "Тула", "Краснодар"}
	subjects   = []string{"Футболки", "Джинсы", "Кроссовки", "Куртки", "Рюкзаки"}
	brands     = []string{"NordWay", "UrbanFox", "Стриж", "Вымпел"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pick returns a random element of items.
func pick(items []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(items))))
	return items[n.Int64()]
}

// generateRecords creates rows rows of plausible paid storage data spread
// across the requested period.
func generateRecords(rows int, from, to time.Time) []model.StorageRecord {
	if rows <= 0 {
		return nil
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	records := make([]model.StorageRecord, rows)
	for i := range records {
		day := from.AddDate(0, 0, i%days)
		records[i] = generateSingleRecord(i, day)
	}
	return records
}

// generateSingleRecord creates a single storage record for the given day.
func generateSingleRecord(index int, day time.Time) model.StorageRecord {
	nm, _ := rand.Int(rand.Reader, big.NewInt(90000000))
	chrt, _ := rand.Int(rand.Reader, big.NewInt(900000000))
	barcode, _ := rand.Int(rand.Reader, big.NewInt(1000000000))

	return model.StorageRecord{
		Date:             period.FormatAPI(day),
		LogWarehouseCoef: 1,
		OfficeID:         int64(500 + index%50),
		Warehouse:        pick(warehouses),
		WarehouseCoef:    1.0 + getRandomFloat(),
		GiID:             int64(1000000 + index),
		ChrtID:           chrt.Int64(),
		Size:             "0",
		Barcode:          fmt.Sprintf("20%09d", barcode.Int64()),
		Subject:          pick(subjects),
		Brand:            pick(brands),
		VendorCode:       fmt.Sprintf("SKU-%05d", index),
		NmID:             10000000 + nm.Int64(),
		Volume:           0.5 + getRandomFloat()*9.5,
		CalcType:         "короба: без габаритов",
		WarehousePrice:   generateStoragePrice(),
		BarcodesCount:    1 + index%5,
		PalletPlaceCode:  0,
		PalletCount:      0,
		OriginalDate:     period.FormatAPI(day),
		LoyaltyDiscount:  0,
		TariffFixDate:    "",
		TariffLowerDate:  "",
	}
}

// generateStoragePrice creates a per-day storage price with a varied
// distribution across item size bands.
func generateStoragePrice() float64 {
	band, _ := rand.Int(rand.Reader, big.NewInt(priceBandDivisor))
	switch band.Int64() {
	case caseSmallItem:
		// Small items (0.05 - 0.45) - cheapest to store
		return smallItemMin + getRandomFloat()*smallItemRange
	case caseRegularItem:
		// Regular items (0.4 - 2.4) - most common
		return regularItemMin + getRandomFloat()*regularItemRange
	case caseBulkyItem:
		// Bulky items (2.0 - 10.0)
		return bulkyItemMin + getRandomFloat()*bulkyItemRange
	case casePallet:
		// Pallet storage (25.0 - 55.0) - rare
		return palletMin + getRandomFloat()*palletRange
	default:
		return regularItemMin + getRandomFloat()*regularItemRange
	}
}
