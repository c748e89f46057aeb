package geo

// Códigos INDEC de las 24 jurisdicciones.
var provinces = []Place{
	{ID: "06", Name: "Buenos Aires"},
	{ID: "10", Name: "Catamarca"},
	{ID: "22", Name: "Chaco"},
	{ID: "26", Name: "Chubut"},
	{ID: "02", Name: "Ciudad Autónoma de Buenos Aires"},
	{ID: "14", Name: "Córdoba"},
	{ID: "18", Name: "Corrientes"},
	{ID: "30", Name: "Entre Ríos"},
	{ID: "34", Name: "Formosa"},
	{ID: "38", Name: "Jujuy"},
	{ID: "42", Name: "La Pampa"},
	{ID: "46", Name: "La Rioja"},
	{ID: "50", Name: "Mendoza"},
	{ID: "54", Name: "Misiones"},
	{ID: "58", Name: "Neuquén"},
	{ID: "62", Name: "Río Negro"},
	{ID: "66", Name: "Salta"},
	{ID: "70", Name: "San Juan"},
	{ID: "74", Name: "San Luis"},
	{ID: "78", Name: "Santa Cruz"},
	{ID: "82", Name: "Santa Fe"},
	{ID: "86", Name: "Santiago del Estero"},
	{ID: "94", Name: "Tierra del Fuego, Antártida e Islas del Atlántico Sur"},
	{ID: "90", Name: "Tucumán"},
}

func fallbackProvinces() []Place {
	out := make([]Place, len(provinces))
	copy(out, provinces)
	return out
}
