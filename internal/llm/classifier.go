package llm

import (
	"context"

	"github.com/team-sakkal/caoscan/internal/model"
)

// Classifier turns one candidate sentence into zero or more raw
// wage-increase claims by consulting an external language model.
//
// The oracle is approximate and unreliable: implementations must treat
// its output as untrusted (see the reply-recovery parsing in Client) and
// callers must treat a returned error as "no claims from this sentence",
// never as a document-level failure.
type Classifier interface {
	Classify(ctx context.Context, sentence string) ([]model.RawClaim, error)
}

// systemPrompt is the fixed classification policy. It instructs the model
// to extract only unconditional, definite, collectively-agreed wage
// increases with an effective date, and to return a single JSON object
// with a `verhogingen` list.
const systemPrompt = "Je bent een expert in het analyseren van Nederlandse CAO-teksten. " +
	"Je taak is om **alleen** concrete, definitieve loonstijgingen te vinden, te extraheren en te categoriseren.\n\n" +
	"**ZEER BELANGRIJKE REGELS OM TE VOLGEN:**\n" +
	"- **NEGEER VOLLEDIG** alle zinnen die onderdeel zijn van een voorbeeld, berekening of hypothese.\n" +
	"- Zoek naar sleutelwoorden zoals: **\"Voorbeeld:\", \"Rekenvoorbeeld\", \"Stel dat\", \"Als ... dan\", \"Berekening\"**. " +
	"Als je zo'n sleutelwoord ziet, is de zin bijna altijd een voorbeeld en moet je een lege `verhogingen` lijst teruggeven.\n" +
	"- Negeer ook structurele salarisverschillen tussen functies, verhogingen die voorwaardelijk zijn ('tenzij', 'indien') " +
	"of die alleen een vergelijking maken met het verleden ('ten opzichte van' een datum).\n" +
	"- Focus **alleen** op definitieve, vastgelegde collectieve loonsverhogingen voor de toekomst.\n\n" +
	"**Jouw taak:**\n" +
	"Analyseer de zin en geef een JSON-object terug. Het object moet een lijst `verhogingen` bevatten. " +
	"Een zin kan **meerdere** loonstijgingen bevatten; je moet ze **allemaal** vinden. " +
	"Voor **elke** gevonden loonstijging, maak een object met VIER sleutels:\n" +
	"1. `datum`: De ingangsdatum (formaat: \"DD/MM/YYYY\").\n" +
	"2. `percentage`: Het percentage (als een getal, bv. 3.5).\n" +
	"3. `categorie`: Classificeer het type verhoging. Kies uit: \"standaard\", \"verlofdag_omzetting\", \"dienstjaren_toeslag\", \"WML_koppeling\", \"anders\".\n" +
	"4. `uitleg`: Een korte toelichting op je keuze.\n\n" +
	"**BELANGRIJK:** Je antwoord MOET **uitsluitend** een enkel, geldig JSON-object zijn met de sleutel 'verhogingen'. Geen extra tekst."

// fewShots are fixed input/output example pairs sent before the target
// sentence on every request.
var fewShots = []struct {
	user      string
	assistant string
}{
	{
		user: "De salarissen stijgen met 2% op 01-01-2025 en met nog eens 3% op 01-07-2025.",
		assistant: `{"verhogingen": [{"datum": "01/01/2025", "percentage": 2.0, "categorie": "standaard", "uitleg": "Een standaard collectieve verhoging."}, ` +
			`{"datum": "01/07/2025", "percentage": 3.0, "categorie": "standaard", "uitleg": "Een tweede standaard collectieve verhoging."}]}`,
	},
	{
		user: "Het minimumloon wordt per 1/1/26 berekend door 3,85% bovenop het WML te tellen.",
		assistant: `{"verhogingen": [{"datum": "01/01/2026", "percentage": 3.85, "categorie": "WML_koppeling", ` +
			`"uitleg": "De verhoging is direct gekoppeld aan het WML."}]}`,
	},
	{
		user:      "Voorbeeld: Als het bruto uursalaris met 3,88% stijgt, dan...",
		assistant: `{"verhogingen": [], "uitleg": "De zin begint met 'Voorbeeld:'."}`,
	},
}
