package partnerapi

import (
	"encoding/json"
	"fmt"
	"time"
)

// SampleEnvelope returns canned data for sandbox dealers. The payload is
// deterministic for a given dealer and window so repeating a job produces the
// same natural keys and exercises the duplicate-skip path instead of growing
// the tables.
func SampleEnvelope(documentType string, dealerId string, from time.Time, to time.Time) Envelope {
	tag := sampleTag(dealerId, from)
	receivedAt := from.UTC().Format(time.RFC3339)

	var data any
	switch documentType {
	case "prospect":
		data = []map[string]any{
			{
				"prospect_number": fmt.Sprintf("SB-P-%s-001", tag),
				"customer_name":   "Sample Buyer One",
				"email":           "buyer.one@example.com",
				"phone":           "+12025550101",
				"source":          "walk-in",
				"salesperson":     "Sandbox Rep",
				"received_at":     receivedAt,
				"units": []map[string]any{
					{"make": "Honda", "model": "CR-V", "year": 2024, "trim": "EX-L", "stock_number": "STK-1001"},
				},
			},
			{
				"prospect_number": fmt.Sprintf("SB-P-%s-002", tag),
				"customer_name":   "Sample Buyer Two",
				"email":           "buyer.two@example.com",
				"phone":           "+12025550102",
				"source":          "web",
				"salesperson":     "Sandbox Rep",
				"received_at":     receivedAt,
				"units": []map[string]any{
					{"make": "Toyota", "model": "Tacoma", "year": 2023, "trim": "SR5", "stock_number": "STK-1002"},
					{"make": "Toyota", "model": "RAV4", "year": 2024, "trim": "LE", "stock_number": "STK-1003"},
				},
			},
		}
	case "service_order":
		data = []map[string]any{
			{
				"order_number":  fmt.Sprintf("SB-RO-%s-001", tag),
				"customer_name": "Sample Owner",
				"vehicle_vin":   "1HGCM82633A004352",
				"status":        "open",
				"opened_at":     receivedAt,
				"total_amount":  "245.50",
				"lines": []map[string]any{
					{"line_type": "labor", "op_code": "LOF", "description": "Lube oil filter", "quantity": "1", "unit_price": "89.50", "amount": "89.50"},
					{"line_type": "part", "op_code": "LOF", "description": "Oil filter", "quantity": "1", "unit_price": "12.00", "amount": "12.00"},
				},
			},
		}
	case "parts_shipment":
		data = []map[string]any{
			{
				"shipment_number": fmt.Sprintf("SB-SH-%s-001", tag),
				"carrier":         "UPS",
				"status":          "in_transit",
				"shipped_at":      receivedAt,
				"lines": []map[string]any{
					{"part_number": "15400-PLM-A02", "description": "Filter, oil", "quantity": "24", "unit_cost": "4.85"},
					{"part_number": "17220-5AA-A00", "description": "Element, air cleaner", "quantity": "12", "unit_cost": "11.20"},
				},
			},
		}
	case "invoice":
		data = []map[string]any{
			{
				"invoice_number": fmt.Sprintf("SB-INV-%s-001", tag),
				"customer_name":  "Sample Fleet LLC",
				"invoice_date":   receivedAt,
				"total_amount":   "1250.00",
				"tax_amount":     "87.50",
				"lines": []map[string]any{
					{"description": "Scheduled maintenance package", "quantity": "1", "unit_price": "1250.00", "amount": "1250.00"},
				},
			},
		}
	default:
		data = []map[string]any{}
	}

	raw, _ := json.Marshal(data)
	return Envelope{Status: StatusOK, Message: "sample data", Data: raw}
}

func sampleTag(dealerId string, from time.Time) string {
	prefix := dealerId
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s-%s", prefix, from.UTC().Format("20060102"))
}
