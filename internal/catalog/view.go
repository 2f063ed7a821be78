package catalog

import "encoding/json"

// RecordView is the wire form of a Record. Absent fields are omitted rather
// than rendered as zero or Unknown.
type RecordView struct {
	ItemID      *int64     `json:"itemId,omitempty"`
	Description string     `json:"description,omitempty"`
	Major       string     `json:"major,omitempty"`
	FabType     string     `json:"fabType,omitempty"`
	Qty         *float64   `json:"qty,omitempty"`
	StockValue  *float64   `json:"stockValue,omitempty"`
	SecQty      *float64   `json:"secQty,omitempty"`
	Aging       *AgingView `json:"agingBuckets,omitempty"`
}

// AgingView is the wire form of AgingBuckets.
type AgingView struct {
	D60      *float64 `json:"d60,omitempty"`
	D90      *float64 `json:"d90,omitempty"`
	D180     *float64 `json:"d180,omitempty"`
	D180Plus *float64 `json:"d180plus,omitempty"`
}

// View converts the record to its wire form.
func (r Record) View() RecordView {
	num := func(f Field) *float64 {
		v, ok := r.Get(f)
		if !ok {
			return nil
		}
		n := v.Num
		return &n
	}
	text := func(f Field) string {
		v, _ := r.Get(f)
		return v.Text
	}

	view := RecordView{
		Description: text(FieldDescription),
		Major:       text(FieldMajor),
		FabType:     text(FieldFabType),
		Qty:         num(FieldQty),
		StockValue:  num(FieldStockValue),
		SecQty:      num(FieldSecQty),
	}
	if r.Has(FieldItemID) {
		id := r.ItemID
		view.ItemID = &id
	}

	aging := AgingView{
		D60:      num(FieldAging60),
		D90:      num(FieldAging90),
		D180:     num(FieldAging180),
		D180Plus: num(FieldAging180Plus),
	}
	if aging != (AgingView{}) {
		view.Aging = &aging
	}
	return view
}

// Record converts the wire form back, restoring field presence.
func (v RecordView) Record() Record {
	r := Record{Description: Unknown, Major: Unknown, FabType: Unknown}
	setNum := func(f Field, src *float64, dst *float64) {
		if src != nil {
			*dst = *src
			r.mark(f)
		}
	}
	setText := func(f Field, src string, dst *string) {
		if src != "" {
			*dst = src
			r.mark(f)
		}
	}

	if v.ItemID != nil {
		r.ItemID = *v.ItemID
		r.mark(FieldItemID)
	}
	setText(FieldDescription, v.Description, &r.Description)
	setText(FieldMajor, v.Major, &r.Major)
	setText(FieldFabType, v.FabType, &r.FabType)
	setNum(FieldQty, v.Qty, &r.Qty)
	setNum(FieldStockValue, v.StockValue, &r.StockValue)
	setNum(FieldSecQty, v.SecQty, &r.SecQty)
	if v.Aging != nil {
		setNum(FieldAging60, v.Aging.D60, &r.Aging.D60)
		setNum(FieldAging90, v.Aging.D90, &r.Aging.D90)
		setNum(FieldAging180, v.Aging.D180, &r.Aging.D180)
		setNum(FieldAging180Plus, v.Aging.D180Plus, &r.Aging.D180Plus)
	}
	return r
}

// MarshalJSON encodes the record as a RecordView.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.View())
}

// UnmarshalJSON decodes a RecordView.
func (r *Record) UnmarshalJSON(data []byte) error {
	var v RecordView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = v.Record()
	return nil
}
