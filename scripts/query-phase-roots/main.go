package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// Ad-hoc operational query: find every published proof set matching a
// Merkle root, and the mints recorded against those phases. Used when
// reconciling an on-chain root against what the backend has stored.
//
// Usage: go run scripts/query-phase-roots/main.go [0xroot]
func main() {
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "launchpad")

	if len(os.Args) < 2 {
		log.Fatal("Usage: query-phase-roots <merkle-root>")
	}
	root := os.Args[1]

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	fmt.Printf("=== Querying Merkle Root: %s ===\n\n", root)

	fmt.Println("🌳 Proof Files:")
	queryProofFiles(db, root)

	fmt.Println("\n📦 Mints in matching phases:")
	queryMints(db, root)
}

func queryProofFiles(db *sql.DB, root string) {
	rows, err := db.Query(`
		SELECT id, contract_address, phase_id, merkle_root, total_wallets, generated_at, created_at
		FROM proof_files
		WHERE merkle_root = $1
		ORDER BY created_at DESC
	`, root)
	if err != nil {
		log.Printf("Error querying proof_files: %v", err)
		return
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		found = true
		var id, phaseID, totalWallets, generatedAt int64
		var contract, merkleRoot, createdAt string
		if err := rows.Scan(&id, &contract, &phaseID, &merkleRoot, &totalWallets, &generatedAt, &createdAt); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		fmt.Printf("  ID: %d\n", id)
		fmt.Printf("    Contract: %s\n", contract)
		fmt.Printf("    Phase ID: %d\n", phaseID)
		fmt.Printf("    Total Wallets: %d\n", totalWallets)
		fmt.Printf("    Generated At: %d\n", generatedAt)
		fmt.Printf("    Created At: %s\n", createdAt)
		fmt.Println()
	}
	if !found {
		fmt.Println("  No records found in proof_files")
	}
}

func queryMints(db *sql.DB, root string) {
	rows, err := db.Query(`
		SELECT m.id, m.wallet, m.phase_id, m.quantity, m.tx_hash, m.created_at
		FROM mint_records m
		JOIN proof_files p
		  ON p.contract_address = m.contract_address AND p.phase_id = m.phase_id
		WHERE p.merkle_root = $1
		ORDER BY m.created_at DESC
		LIMIT 50
	`, root)
	if err != nil {
		log.Printf("Error querying mint_records: %v", err)
		return
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		found = true
		var phaseID, quantity int64
		var id, wallet, txHash, createdAt string
		if err := rows.Scan(&id, &wallet, &phaseID, &quantity, &txHash, &createdAt); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		fmt.Printf("  %s minted %d in phase %d (tx %s) at %s\n", wallet, quantity, phaseID, txHash, createdAt)
	}
	if !found {
		fmt.Println("  No mints recorded for phases with this root")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
