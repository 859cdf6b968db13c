package ingest

import (
	"regexp"
	"strings"

	"github.com/hyperjump/vitrine/internal/models"
)

// Field aliases accepted by the generic vehicle parser, in priority order.
var (
	aliasID            = []string{"id", "ID", "codigo", "cod"}
	aliasTipo          = []string{"tipo", "type", "categoria_veiculo", "CATEGORY", "vehicle_type"}
	aliasTitulo        = []string{"titulo", "title", "TITLE"}
	aliasVersao        = []string{"versao", "version", "variant", "VERSION"}
	aliasMarca         = []string{"marca", "brand", "fabricante", "MAKE"}
	aliasModelo        = []string{"modelo", "model", "nome", "MODEL"}
	aliasAno           = []string{"ano_mod", "anoModelo", "ano", "year_model", "ano_modelo", "YEAR"}
	aliasAnoFabricacao = []string{"ano_fab", "anoFabricacao", "ano_fabricacao", "year_manufacture", "FABRIC_YEAR"}
	aliasKm            = []string{"km", "quilometragem", "mileage", "kilometers", "MILEAGE"}
	aliasCor           = []string{"cor", "color", "colour", "COLOR"}
	aliasCombustivel   = []string{"combustivel", "fuel", "fuel_type", "FUEL"}
	aliasCambio        = []string{"cambio", "transmission", "gear", "GEAR"}
	aliasMotor         = []string{"motor", "engine", "motorization", "MOTOR"}
	aliasPortas        = []string{"portas", "doors", "num_doors", "DOORS"}
	aliasCilindrada    = []string{"cilindrada", "displacement", "engine_size"}
	aliasPreco         = []string{"valor", "valorVenda", "preco", "price", "value", "PRICE"}
	aliasOpcionais     = []string{"opcionais", "options", "extras", "features", "FEATURES"}
	aliasFotos         = []string{"galeria", "fotos", "photos", "images", "gallery", "IMAGES"}
	aliasCategoria     = []string{"categoria", "body_type", "carroceria"}
)

// VehicleParser handles dealer stock feeds of arbitrary shape by looking up
// each attribute under its known aliases. It matches nothing and serves as the
// registry fallback.
func VehicleParser() Parser {
	return Parser{
		Name:      "vehicles",
		Match:     func(any, string) bool { return false },
		Transform: transformVehicles,
	}
}

func transformVehicles(doc any, env *Env) []models.Record {
	table := tableOf(env)
	items := collectItems(doc)
	out := make([]models.Record, 0, len(items))
	for _, item := range items {
		rec := models.Record{}
		setText(rec, models.FieldID, text(pick(item, aliasID...)))
		setText(rec, models.FieldTitulo, text(pick(item, aliasTitulo...)))
		setText(rec, models.FieldVersao, text(pick(item, aliasVersao...)))
		setText(rec, models.FieldMarca, text(pick(item, aliasMarca...)))
		setText(rec, models.FieldModelo, text(pick(item, aliasModelo...)))
		setText(rec, models.FieldCor, text(pick(item, aliasCor...)))
		setText(rec, models.FieldCombustivel, text(pick(item, aliasCombustivel...)))
		setText(rec, models.FieldCambio, text(pick(item, aliasCambio...)))
		setText(rec, models.FieldMotor, text(pick(item, aliasMotor...)))
		setText(rec, models.FieldCategoria, text(pick(item, aliasCategoria...)))
		setText(rec, models.FieldOpcionais, optionsText(pick(item, aliasOpcionais...)))

		if y, ok := integer(pick(item, aliasAno...)); ok {
			rec[models.FieldAno] = float64(y)
		}
		if y, ok := integer(pick(item, aliasAnoFabricacao...)); ok {
			rec[models.FieldAnoFabricacao] = float64(y)
		}
		if n, ok := integer(pick(item, aliasPortas...)); ok {
			rec[models.FieldPortas] = float64(n)
		}
		km, ok := amount(pick(item, aliasKm...))
		setNumber(rec, models.FieldKm, km, ok)
		price, ok := amount(pick(item, aliasPreco...))
		setNumber(rec, models.FieldPreco, price, ok)
		if cc, ok := amount(pick(item, aliasCilindrada...)); ok && cc > 0 {
			rec[models.FieldCilindrada] = models.NormalizeDisplacement(cc)
		}
		rec[models.FieldFotos] = NormalizeImages(pick(item, aliasFotos...))

		classify(rec, table, isMotorcycle(text(pick(item, aliasTipo...))),
			rec.String(models.FieldModelo), rec.String(models.FieldVersao), rec.String(models.FieldOpcionais))
		out = append(out, rec)
	}
	return out
}

// listingPlaceholder is the image URL listing feeds send when a vehicle has no photo.
const listingPlaceholder = "https://app.simplesveiculo.com.br/"

var (
	motorPattern = regexp.MustCompile(`\b(\d+\.\d+)\b`)

	bodyStyles = map[string]string{
		"sedan":       "Sedan",
		"hatchback":   "Hatch",
		"suv":         "SUV",
		"pickup":      "Caminhonete",
		"truck":       "Caminhonete",
		"van":         "Utilitário",
		"wagon":       "Station Wagon",
		"coupe":       "Coupe",
		"convertible": "Conversível",
	}

	fuels = map[string]string{
		"gasoline": "gasolina",
		"ethanol":  "etanol",
		"flex":     "flex",
		"diesel":   "diesel",
		"electric": "elétrico",
		"hybrid":   "híbrido",
	}
)

// ListingParser handles "listings/listing" feeds: one element per vehicle with
// English attribute names and the full model text ("ONIX LTZ 1.4") in model.
func ListingParser() Parser {
	return Parser{
		Name: "listings",
		Match: func(doc any, source string) bool {
			if strings.Contains(strings.ToLower(source), "simplesveiculo.com.br") {
				return true
			}
			m, ok := doc.(map[string]any)
			if !ok {
				return false
			}
			listings, ok := m["listings"].(map[string]any)
			if !ok {
				return false
			}
			_, ok = listings["listing"]
			return ok
		},
		Transform: transformListings,
	}
}

func transformListings(doc any, env *Env) []models.Record {
	table := tableOf(env)
	root, _ := doc.(map[string]any)
	listings, _ := root["listings"].(map[string]any)
	var out []models.Record
	for _, v := range asList(listings["listing"]) {
		item, ok := v.(map[string]any)
		if !ok {
			continue
		}
		full := text(item["model"])
		brand := text(item["make"])
		model := table.BaseModel(full)

		rec := models.Record{}
		setText(rec, models.FieldID, text(item["vehicle_id"]))
		setText(rec, models.FieldTitulo, text(item["title"]))
		setText(rec, models.FieldMarca, brand)
		setText(rec, models.FieldModelo, model)
		setText(rec, models.FieldVersao, listingVersion(full, brand))
		setText(rec, models.FieldCor, capitalize(text(item["exterior_color"])))
		setText(rec, models.FieldCombustivel, mapFuel(text(item["fuel_type"])))
		setText(rec, models.FieldCambio, mapTransmission(text(item["transmission"])))
		if m := motorPattern.FindStringSubmatch(full); m != nil {
			rec[models.FieldMotor] = m[1]
		}
		if y, ok := integer(item["year"]); ok {
			rec[models.FieldAno] = float64(y)
		}
		km, ok := amount(item["mileage"])
		setNumber(rec, models.FieldKm, km, ok)
		price, ok := amount(item["price"])
		setNumber(rec, models.FieldPreco, price, ok)
		rec[models.FieldFotos] = NormalizeImages(item["image"], listingPlaceholder)

		vehicleType := strings.ToLower(text(item["vehicle_type"]))
		moto := vehicleType == "motorcycle" || strings.Contains(vehicleType, "moto")
		if !moto {
			setText(rec, models.FieldCategoria, bodyStyles[strings.ToLower(text(item["body_style"]))])
		}
		classify(rec, table, moto, model, full, "")
		out = append(out, rec)
	}
	return out
}

// listingVersion strips the brand and the base model word from the full model
// text: "Chevrolet ONIX LTZ 1.4" with brand "Chevrolet" gives "LTZ 1.4".
func listingVersion(full, brand string) string {
	v := strings.TrimSpace(full)
	if brand != "" && len(v) >= len(brand) && strings.EqualFold(v[:len(brand)], brand) {
		v = strings.TrimSpace(v[len(brand):])
	}
	words := strings.Fields(v)
	if len(words) <= 1 {
		return ""
	}
	return strings.Join(words[1:], " ")
}

func mapFuel(fuel string) string {
	f := strings.ToLower(strings.TrimSpace(fuel))
	if mapped, ok := fuels[f]; ok {
		return mapped
	}
	return f
}

func mapTransmission(transmission string) string {
	t := strings.ToLower(strings.TrimSpace(transmission))
	switch {
	case strings.Contains(t, "manual"):
		return "manual"
	case strings.Contains(t, "auto"):
		return "automatico"
	}
	return t
}
