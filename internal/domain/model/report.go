// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// StorageRecord is a single row of the Wildberries paid-storage report.
// Field tags mirror the seller-analytics API response exactly.
type StorageRecord struct {
	Date             string  `json:"date"`
	LogWarehouseCoef float64 `json:"logWarehouseCoef"`
	OfficeID         int64   `json:"officeId"`
	Warehouse        string  `json:"warehouse"`
	WarehouseCoef    float64 `json:"warehouseCoef"`
	GiID             int64   `json:"giId"`
	ChrtID           int64   `json:"chrtId"`
	Size             string  `json:"size"`
	Barcode          string  `json:"barcode"`
	Subject          string  `json:"subject"`
	Brand            string  `json:"brand"`
	VendorCode       string  `json:"vendorCode"`
	NmID             int64   `json:"nmId"`
	Volume           float64 `json:"volume"`
	CalcType         string  `json:"calcType"`
	WarehousePrice   float64 `json:"warehousePrice"`
	BarcodesCount    int     `json:"barcodesCount"`
	PalletPlaceCode  int     `json:"palletPlaceCode"`
	PalletCount      float64 `json:"palletCount"`
	OriginalDate     string  `json:"originalDate"`
	LoyaltyDiscount  float64 `json:"loyaltyDiscount"`
	TariffFixDate    string  `json:"tariffFixDate"`
	TariffLowerDate  string  `json:"tariffLowerDate"`
}

// ReportJob describes one report fetch for one seller over one period.
type ReportJob struct {
	ID         string    // unique job id
	SellerCell string    // settings cell the API key came from, e.g. "B1"
	Worksheet  string    // report worksheet title for this seller
	Token      string    // seller API key
	DateFrom   time.Time // period start, inclusive
	DateTo     time.Time // period end, inclusive
}

// Key identifies the seller+period combination for idempotency checks.
// Deliberately excludes the job id: a re-trigger of the same period must
// collide with an in-flight job.
func (j ReportJob) Key() string {
	return fmt.Sprintf("%s_%s_%s", j.SellerCell, j.DateFrom.Format("2006-01-02"), j.DateTo.Format("2006-01-02"))
}

// RunStatus classifies the outcome of a report run.
type RunStatus string

// Run outcomes.
const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

// RunRecord captures the outcome of one processed report job.
type RunRecord struct {
	JobID      string    `json:"job_id"`
	SellerCell string    `json:"seller_cell"`
	Worksheet  string    `json:"worksheet"`
	DateFrom   string    `json:"date_from"`
	DateTo     string    `json:"date_to"`
	Rows       int       `json:"rows"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
