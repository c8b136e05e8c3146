// Package plans holds the static subscription tariff: plan base prices,
// quota limits and the add-on catalog. Prices are the official tariff
// (Nov 2024) and change only with a deploy.
package plans

import (
	"log"
	"sort"

	"laiaconnect/internal/common"

	"github.com/shopspring/decimal"
)

// Plan identifiers.
const (
	PlanSolo    = "SOLO"
	PlanDuo     = "DUO"
	PlanTeam    = "TEAM"
	PlanPremium = "PREMIUM"
)

// Quotas are the usage limits attached to a plan. -1 means unlimited.
type Quotas struct {
	MaxUsers      int `json:"max_users"`
	MaxLocations  int `json:"max_locations"`
	StorageGB     int `json:"storage_gb"`
	EmailsPerMo   int `json:"emails_per_month"`
	SMSPerMo      int `json:"sms_per_month"`
	WhatsAppPerMo int `json:"whatsapp_per_month"`
}

// Plan is one subscription tier.
type Plan struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	MonthlyPrice   decimal.Decimal `json:"monthly_price"`
	Quotas         Quotas          `json:"quotas"`
	IncludedAddons []string        `json:"included_addons"`
}

// Addon is a paid module or option a tenant can enable on top of its plan.
type Addon struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

var planTable = map[string]Plan{
	PlanSolo: {
		ID:           PlanSolo,
		Name:         "Solo",
		MonthlyPrice: decimal.NewFromInt(49),
		Quotas:       Quotas{MaxUsers: 1, MaxLocations: 1, StorageGB: 5, EmailsPerMo: 1000, SMSPerMo: 0, WhatsAppPerMo: 200},
	},
	PlanDuo: {
		ID:             PlanDuo,
		Name:           "Duo",
		MonthlyPrice:   decimal.NewFromInt(69),
		Quotas:         Quotas{MaxUsers: 3, MaxLocations: 1, StorageGB: 15, EmailsPerMo: 2000, SMSPerMo: 0, WhatsAppPerMo: 500},
		IncludedAddons: []string{"blog"},
	},
	PlanTeam: {
		ID:             PlanTeam,
		Name:           "Team",
		MonthlyPrice:   decimal.NewFromInt(119),
		Quotas:         Quotas{MaxUsers: 8, MaxLocations: 3, StorageGB: 30, EmailsPerMo: 5000, SMSPerMo: 200, WhatsAppPerMo: 1000},
		IncludedAddons: []string{"blog", "products", "crm"},
	},
	PlanPremium: {
		ID:             PlanPremium,
		Name:         "Premium",
		MonthlyPrice: decimal.NewFromInt(179),
		Quotas:       Quotas{MaxUsers: -1, MaxLocations: -1, StorageGB: -1, EmailsPerMo: -1, SMSPerMo: 1000, WhatsAppPerMo: -1},
		IncludedAddons: []string{"blog", "products", "crm", "stock", "formations"},
	},
}

var addonTable = map[string]Addon{
	"blog":                {ID: "blog", Name: "Blog", MonthlyPrice: decimal.NewFromInt(15)},
	"products":            {ID: "products", Name: "Boutique Produits", MonthlyPrice: decimal.NewFromInt(30)},
	"crm":                 {ID: "crm", Name: "CRM & Prospection", MonthlyPrice: decimal.NewFromInt(40)},
	"stock":               {ID: "stock", Name: "Gestion de Stock Avancée", MonthlyPrice: decimal.NewFromInt(25)},
	"formations":          {ID: "formations", Name: "Vente de Formations", MonthlyPrice: decimal.NewFromInt(50)},
	"whatsapp_automation": {ID: "whatsapp_automation", Name: "Automatisation WhatsApp", MonthlyPrice: decimal.NewFromInt(20)},
	"instagram_scheduler": {ID: "instagram_scheduler", Name: "Planificateur Instagram", MonthlyPrice: decimal.NewFromInt(25)},
	"sms_marketing":       {ID: "sms_marketing", Name: "SMS Marketing", MonthlyPrice: decimal.NewFromInt(30)},
	"gift_cards":          {ID: "gift_cards", Name: "Cartes Cadeaux", MonthlyPrice: decimal.NewFromInt(15)},
	"loyalty_advanced":    {ID: "loyalty_advanced", Name: "Programme de Fidélité Avancé", MonthlyPrice: decimal.NewFromInt(20)},
	"multi_location":      {ID: "multi_location", Name: "Multi-emplacements", MonthlyPrice: decimal.NewFromInt(50)},
	"priority_support":    {ID: "priority_support", Name: "Support Prioritaire", MonthlyPrice: decimal.NewFromInt(35)},
	"custom_domain_ssl":   {ID: "custom_domain_ssl", Name: "Domaine Personnalisé avec SSL", MonthlyPrice: decimal.NewFromInt(10)},
}

// IsValidPlan reports whether plan is a known plan identifier.
func IsValidPlan(plan string) bool {
	_, ok := planTable[plan]
	return ok
}

// PlanFor returns the plan definition, or an UNKNOWN_PLAN error for ids not
// in the tariff.
func PlanFor(id string) (Plan, error) {
	p, ok := planTable[id]
	if !ok {
		return Plan{}, common.NewDomainError(common.KindUnknownPlan,
			"plan is not in the tariff", "plan", id)
	}
	return p, nil
}

// PriceFor returns the base monthly price for a plan. Unknown plan ids price
// at zero with a logged warning: historical invoices may reference retired
// plans and must not fail generation.
func PriceFor(plan string) decimal.Decimal {
	p, err := PlanFor(plan)
	if err != nil {
		log.Printf("WARN: %v, pricing at 0", err)
		return decimal.Zero
	}
	return p.MonthlyPrice
}

// QuotasFor returns the quota set for a plan, defaulting to SOLO limits for
// unknown plans.
func QuotasFor(plan string) Quotas {
	p, ok := planTable[plan]
	if !ok {
		return planTable[PlanSolo].Quotas
	}
	return p.Quotas
}

// IncludedAddons returns the add-on ids bundled into a plan.
func IncludedAddons(plan string) []string {
	return planTable[plan].IncludedAddons
}

// AddonPrice returns the monthly delta for an add-on and whether it exists.
func AddonPrice(id string) (decimal.Decimal, bool) {
	a, ok := addonTable[id]
	if !ok {
		return decimal.Zero, false
	}
	return a.MonthlyPrice, true
}

// AvailableAddons lists the add-ons a tenant on the given plan can still
// purchase, excluding modules already bundled into the plan.
func AvailableAddons(plan string) []Addon {
	included := make(map[string]bool)
	for _, id := range IncludedAddons(plan) {
		included[id] = true
	}
	var out []Addon
	for id, a := range addonTable {
		if !included[id] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TotalMonthlyAmount returns base plan price plus the deltas of the enabled
// add-ons. Unknown add-on ids are ignored for schema-drift tolerance, and
// add-ons already included in the plan are not double-billed.
func TotalMonthlyAmount(plan string, addons []string) decimal.Decimal {
	total := PriceFor(plan)
	included := make(map[string]bool)
	for _, id := range IncludedAddons(plan) {
		included[id] = true
	}
	seen := make(map[string]bool)
	for _, id := range addons {
		if seen[id] || included[id] {
			continue
		}
		seen[id] = true
		if price, ok := AddonPrice(id); ok {
			total = total.Add(price)
		}
	}
	return total
}
