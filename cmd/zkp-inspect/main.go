// zkp-inspect compiles the circuits of a committee capacity and prints
// their sizes, without running any setup.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	flag "github.com/spf13/pflag"
	"github.com/vocdoni/albatross-zkp/circuits"
	"github.com/vocdoni/albatross-zkp/circuits/dummy"
	"github.com/vocdoni/albatross-zkp/circuits/macroblock"
	"github.com/vocdoni/albatross-zkp/circuits/mergerb"
	"github.com/vocdoni/albatross-zkp/circuits/wrapper"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
)

type row struct {
	name  string
	curve ecc.ID
	ccs   constraint.ConstraintSystem
}

func main() {
	validators := flag.IntP("validators", "v", circuits.DefaultValidators, "committee capacity, a power of two")
	withMergers := flag.Bool("mergers", false, "also compile the wrapper and merger B, which needs a throwaway setup of the block circuit")
	flag.Parse()
	log.Init(log.LogLevelWarn, "stderr", nil)

	shape := setup.Shape{Validators: *validators}
	if err := shape.Validate(); err != nil {
		log.Fatal(err)
	}
	params := pedersen.DefaultParams()
	compile := func(name string, curve ecc.ID, placeholder frontend.Circuit) row {
		ccs, err := frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, placeholder)
		if err != nil {
			log.Fatalf("compile %s: %v", name, err)
		}
		return row{name: name, curve: curve, ccs: ccs}
	}

	rows := []row{
		compile(circuits.NameMacroBlock, ecc.BW6_761, macroblock.Placeholder(params, shape.Validators)),
		compile(circuits.NameDummy, dummy.Curve, dummy.PlaceholderWithConstraints(setup.DummyConstraints)),
	}
	if *withMergers {
		// the wrapper and merger B embed verifying keys, whose values do
		// not change the circuit sizes
		_, blockVK, err := groth16.Setup(rows[0].ccs)
		if err != nil {
			log.Fatal(err)
		}
		placeholder, err := wrapper.Placeholder(rows[0].ccs, blockVK)
		if err != nil {
			log.Fatal(err)
		}
		wrapperRow := compile(circuits.NameWrapper, ecc.BLS12_377, placeholder)
		_, wrapperVK, err := groth16.Setup(wrapperRow.ccs)
		if err != nil {
			log.Fatal(err)
		}
		placeholderB, err := mergerb.Placeholder(rows[1].ccs, wrapperRow.ccs, wrapperVK)
		if err != nil {
			log.Fatal(err)
		}
		rows = append(rows, wrapperRow, compile(circuits.NameMergerB, ecc.BW6_761, placeholderB))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CIRCUIT\tCURVE\tCONSTRAINTS\tPUBLIC\tSECRET\tCOMMITMENTS\tSHAPE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.name, r.curve,
			r.ccs.GetNbConstraints(),
			r.ccs.GetNbPublicVariables(),
			r.ccs.GetNbSecretVariables(),
			len(r.ccs.GetCommitments().CommitmentIndexes()),
			setup.ShapeID(r.name, r.curve, r.ccs.GetNbConstraints(), r.ccs.GetNbPublicVariables(), shape.Validators))
	}
	if err := w.Flush(); err != nil {
		log.Fatal(err)
	}
}
