package domain

// probability.go: modelo de probabilidad sin estado ni I/O.
//
// La probabilidad "justa" se obtiene de los precios del propio mercado: media de
// las probabilidades implícitas de todas las casas por lado, normalizada para
// quitar el margen. Por eso el edge mide dispersión entre casas, no ventaja
// contra la probabilidad real del suceso.

// DefaultKellyCap es el tope por defecto de la fracción de Kelly.
const DefaultKellyCap = 0.25

// ImpliedProbability devuelve 1/price. Devuelve 0 si price <= 0.
func ImpliedProbability(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return 1 / price
}

// ConsensusProbability es la media de las probabilidades implícitas de un lado,
// sin normalizar. Devuelve 0 si no hay precios.
func ConsensusProbability(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var sum float64
	for _, p := range prices {
		sum += ImpliedProbability(p)
	}
	return sum / float64(len(prices))
}

// FairProbabilities quita el margen de un mercado de N lados. Cada elemento de
// sides son las cuotas de todas las casas para ese resultado. Devuelve false si
// algún lado está vacío o la suma de medias es <= 0.
func FairProbabilities(sides ...[]float64) ([]float64, bool) {
	if len(sides) == 0 {
		return nil, false
	}
	means := make([]float64, len(sides))
	var total float64
	for i, prices := range sides {
		if len(prices) == 0 {
			return nil, false
		}
		means[i] = ConsensusProbability(prices)
		total += means[i]
	}
	if total <= 0 {
		return nil, false
	}
	for i := range means {
		means[i] /= total
	}
	return means, true
}

// FairProbabilitiesTwoWay es FairProbabilities para mercados binarios.
func FairProbabilitiesTwoWay(pricesA, pricesB []float64) (pA, pB float64, ok bool) {
	probs, ok := FairProbabilities(pricesA, pricesB)
	if !ok {
		return 0, 0, false
	}
	return probs[0], probs[1], true
}

// FairProbabilitiesThreeWay es FairProbabilities para mercados 1X2.
func FairProbabilitiesThreeWay(pricesA, pricesB, pricesC []float64) (pA, pB, pC float64, ok bool) {
	probs, ok := FairProbabilities(pricesA, pricesB, pricesC)
	if !ok {
		return 0, 0, 0, false
	}
	return probs[0], probs[1], probs[2], true
}

// ValueEdge = bestPrice·pFair − 1. Positivo si la mejor cuota paga más que la
// probabilidad justa estimada. Como pFair sale del mismo mercado, un edge alto
// indica que una casa se separa del consenso.
func ValueEdge(bestPrice, pFair float64) float64 {
	return bestPrice*pFair - 1
}

// InverseSum devuelve Σ 1/price. Menor que 1 implica arbitraje.
func InverseSum(prices ...float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += ImpliedProbability(p)
	}
	return sum
}

// KellyFraction calcula la fracción de Kelly recortada a [0, cap].
//
// price es la CUOTA DECIMAL (p.ej. 2.20), no la ganancia neta: internamente se
// usa b = price − 1. Devuelve 0 si b <= 0, p <= 0, cap <= 0 o el resultado
// es negativo.
func KellyFraction(p, price, cap float64) float64 {
	b := price - 1
	if b <= 0 || p <= 0 || cap <= 0 {
		return 0
	}
	q := 1 - p
	f := (b*p - q) / b
	if f < 0 {
		return 0
	}
	if f > cap {
		return cap
	}
	return f
}
