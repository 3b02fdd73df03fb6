package composer

import (
	"fmt"
	"strings"

	"github.com/legisgraph/legisgraph/internal/graph"
)

// answerPrompt frames the model as a precise legal assistant that answers
// from the supplied context only and closes with machine-checkable citations.
func answerPrompt(question string, rows []graph.ContextRow) string {
	var b strings.Builder
	b.WriteString("Si zelo natančen pravni asistent za slovensko zakonodajo.\n")
	b.WriteString("Odgovarjaj IZKLJUČNO na podlagi spodaj podanega konteksta.\n")
	b.WriteString("Če kontekst ne zadošča, to jasno povej.\n")
	b.WriteString("Na koncu odgovora navedi sklice v obliki [člen, odstavek, paragraph_id_rc].\n")
	b.WriteString("\nKONTEKST:\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "%d) Člen %s odst. %d (paragraph_id_rc=%s)\n%s\n\n",
			i+1, r.ArticleNum, r.ParagraphNum, r.ParagraphIDRC, r.Text)
	}
	fmt.Fprintf(&b, "\nVPRAŠANJE: %s\n", question)
	b.WriteString("ODGOVOR (v slovenščini):")
	return b.String()
}

// gradingPrompt instructs the model to score a student answer without
// revealing the correct content: a score line, then at most three general
// sentences. An article number, when given, is the only article the model may
// point the student at.
func gradingPrompt(question, userAnswer string, chunks []string, articleNum string) string {
	var b strings.Builder
	b.WriteString("Si natančen pravni asistent za slovensko zakonodajo.\n")
	b.WriteString("Tvoja naloga je OVREDNOTITI odgovor študenta glede na podan kontekst.\n")
	b.WriteString("STROGO prepovedano je podajati popoln modelni odgovor ali navajati konkretne pravilne sestavine, alineje, pojme ali primere. ")
	b.WriteString("NE SMEŠ navajati ali omenjati nobenih konkretnih pravnih izrazov iz konteksta (npr. imen posameznih poročil, mnenj, obveznosti).\n")
	b.WriteString("Tvoj cilj je SAMO ocenjevanje, ne poučevanje. ")
	b.WriteString("Odgovor naj študentu nakaže, ali je odgovor (pravilen|delno pravilen|napačen) in ZGOLJ NA SPLOŠNO, ")
	b.WriteString("ali mu manjka več sestavin, več podrobnosti, dodatna pojasnila ipd., brez konkretnih primerov.\n")
	b.WriteString("Če je odgovor napačen dobi študent 0 točk.\n")
	b.WriteString("Struktura odgovora:\n")
	b.WriteString("1) Prva vrstica: 'Ocena: X/10, odgovor (pravilen|delno pravilen|napačen)'.\n")
	b.WriteString("2) Nato NAJVEČ trije kratki stavki, ki SPLOŠNO opišejo:\n")
	b.WriteString("   - ali se odgovor dotakne glavne teme ali samo manjšega dela vprašanja,\n")
	b.WriteString("   - ali mu manjka več pomembnih elementov ali podrobnosti, brez naštevanja teh elementov,\n")
	b.WriteString("   - na katere člene/odstavke naj se obrne (brez povzema vsebine teh členov).\n")
	b.WriteString("NE naštevaj konkretnih sestavin ali primerov, kot so npr. posamezna poročila, mnenja, postavke ali alineje.\n")
	if articleNum != "" {
		fmt.Fprintf(&b, "Kontekst se nanaša na %s člen in njegove odstavke. ", articleNum)
		b.WriteString("Ne izmišljuj novih številk členov. ")
		b.WriteString("Če omenjaš člen ali odstavek, uporabi podani člen in tisto oznako odstavka, ki je eksplicitno razvidna iz konteksta. ")
		b.WriteString("Pri tem NE opisuj natančne vsebine tega odstavka, samo usmeri študenta nanj.\n")
	} else {
		b.WriteString("Če kontekst ne vsebuje eksplicitnih številk členov, ne izmišljuj novih številk členov; ")
		b.WriteString("raje samo povej, naj študent preveri ustrezne odstavke v podanem kontekstu.\n")
	}
	b.WriteString("Odgovarjaj v slovenščini.\n")
	b.WriteString("\nKONTEKST:\n")
	if len(chunks) == 0 {
		b.WriteString("(Ni konteksta.)\n")
	} else {
		b.WriteString(strings.Join(chunks, "\n\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nVPRAŠANJE: %s\n", question)
	fmt.Fprintf(&b, "\nODGOVOR ŠTUDENTA: %s\n", userAnswer)
	b.WriteString("\nZdaj podaj oceno in zelo splošno razlago v skladu z zgornjimi navodili.")
	return b.String()
}
