package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"chavostd/internal/dataset"
	"chavostd/pkg/contracts/domain"
)

// SampleCSV is a small dataset in the canonical comma/dot format, including
// the optional country and client columns.
const SampleCSV = `annee,type_produit,nom_produit,quantite,prix,vecteur_id,pays,client_name
2022,Champagne,Brut Tradition,100,2.00,V001,FR,Cave Martin
2022,Ratafia,Ratafia Rouge,10,5.00,V002,BE,
2023,Champagne,Brut Tradition,50,2.50,V001,FR,Cave Martin
2023,Champagne,Rose Prestige,20,4.00,V003,FR,Maison Dupont
`

// SampleSemicolonCSV is the same data in the semicolon convention common to
// French spreadsheet exports.
const SampleSemicolonCSV = `annee;type_produit;nom_produit;quantite;prix;vecteur_id
2022;Champagne;Brut Tradition;100;2.00;V001
2023;Ratafia;Ratafia Rouge;10;5.50;V002
`

// SampleRecords mirrors SampleCSV after normalization with the raw-amount
// revenue definition.
func SampleRecords() []domain.SalesRecord {
	records := []domain.SalesRecord{
		{Year: 2022, ProductType: "Champagne", ProductName: "Brut Tradition", Quantity: 100, Amount: 2.00, ChannelID: "V001", Country: "FR", ClientName: "Cave Martin"},
		{Year: 2022, ProductType: "Ratafia", ProductName: "Ratafia Rouge", Quantity: 10, Amount: 5.00, ChannelID: "V002", Country: "BE"},
		{Year: 2023, ProductType: "Champagne", ProductName: "Brut Tradition", Quantity: 50, Amount: 2.50, ChannelID: "V001", Country: "FR", ClientName: "Cave Martin"},
		{Year: 2023, ProductType: "Champagne", ProductName: "Rose Prestige", Quantity: 20, Amount: 4.00, ChannelID: "V003", Country: "FR", ClientName: "Maison Dupont"},
	}
	for i := range records {
		dataset.Derive(&records[i], dataset.Options{})
	}
	return records
}

// WriteTempCSV writes content to a file inside a per-test temp directory and
// returns its path.
func WriteTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ventes.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
