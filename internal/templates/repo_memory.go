package templates

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo, seeded with the default
// global templates so dev mode behaves like a migrated database.
type MemoryRepo struct {
	mu   sync.RWMutex
	data []Template
}

// NewMemoryRepo constructs a MemoryRepo with the default template set.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: defaultTemplates()}
}

// Put adds or replaces a template. Used to seed tests and dev setups.
func (r *MemoryRepo) Put(tpl Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	for i := range r.data {
		if r.data[i].Name == tpl.Name && r.data[i].UserID == tpl.UserID {
			r.data[i] = tpl
			return
		}
	}
	r.data = append(r.data, tpl)
}

// ListActive returns active global templates plus the user's own, ordered by name.
func (r *MemoryRepo) ListActive(ctx context.Context, userID string) ([]Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Template
	for _, tpl := range r.data {
		if tpl.Active && (tpl.UserID == "" || tpl.UserID == userID) {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetActiveByName resolves a template visible to the user by exact name.
func (r *MemoryRepo) GetActiveByName(ctx context.Context, userID, name string) (Template, error) {
	if err := ctx.Err(); err != nil {
		return Template{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var global *Template
	for i := range r.data {
		tpl := &r.data[i]
		if !tpl.Active || tpl.Name != name {
			continue
		}
		if tpl.UserID == userID && userID != "" {
			return *tpl, nil
		}
		if tpl.UserID == "" {
			global = tpl
		}
	}
	if global != nil {
		return *global, nil
	}
	return Template{}, ErrNotFound
}

func defaultTemplates() []Template {
	now := time.Now().UTC()
	mk := func(name, desc string, fields []Field) Template {
		return Template{
			ID:          uuid.NewString(),
			Name:        name,
			Description: desc,
			Fields:      fields,
			Active:      true,
			CreatedAt:   now,
		}
	}
	return []Template{
		mk("KTP", "Indonesian national identity card", []Field{
			{Name: "nik", Required: true},
			{Name: "nama", Required: true},
			{Name: "tempat_lahir"},
			{Name: "tanggal_lahir"},
			{Name: "jenis_kelamin"},
			{Name: "alamat"},
			{Name: "agama"},
			{Name: "status_perkawinan"},
			{Name: "pekerjaan"},
			{Name: "kewarganegaraan"},
		}),
		mk("SIM", "Indonesian driving license", []Field{
			{Name: "nomor_sim", Required: true},
			{Name: "nama", Required: true},
			{Name: "alamat"},
			{Name: "tempat_tanggal_lahir"},
			{Name: "berlaku_hingga"},
			{Name: "golongan"},
		}),
		mk("NPWP", "Indonesian tax identification card", []Field{
			{Name: "npwp", Required: true},
			{Name: "nama", Required: true},
			{Name: "alamat"},
			{Name: "kpp"},
		}),
		mk("STNK", "Indonesian vehicle registration certificate", []Field{
			{Name: "no_registrasi", Required: true},
			{Name: "nama_pemilik", Required: true},
			{Name: "alamat"},
			{Name: "merk"},
			{Name: "tipe"},
			{Name: "tahun_pembuatan"},
			{Name: "nomor_rangka"},
			{Name: "nomor_mesin"},
		}),
		mk("Invoice", "Commercial invoice", []Field{
			{Name: "invoice_number", Required: true},
			{Name: "invoice_date", Required: true},
			{Name: "vendor_name"},
			{Name: "customer_name"},
			{Name: "line_items"},
			{Name: "subtotal"},
			{Name: "tax"},
			{Name: "total", Required: true},
		}),
		mk("Receipt", "Point-of-sale receipt", []Field{
			{Name: "merchant_name", Required: true},
			{Name: "transaction_date", Required: true},
			{Name: "items"},
			{Name: "total", Required: true},
			{Name: "payment_method"},
		}),
	}
}

var _ Repo = (*MemoryRepo)(nil)
