package circuits

// The circuits package contains the circuits used to prove the validity of a
// chain of macro blocks with a single constant-size proof. Every macro block
// hands control to the committee elected in it, so a light client that
// trusts the genesis state only needs the latest proof to trust the latest
// state.
// To achieve that goal, the circuits are used following these steps for
// every block at height h:
//   1. The prover proves the block transition: the committee elected at h-1
//      signed the header at h with two thirds of its weight (MacroBlock).
//   2. If h is odd, the block proof is re-proven on BLS12-377 so that a
//      BW6-761 circuit can verify it natively (Wrapper).
//   3. The previous aggregate proof and the block proof are merged into the
//      aggregate proof at h, alternating the curve at every height (MergerA
//      on even heights, MergerB on odd heights). At height 1 the previous
//      aggregate is replaced by a Dummy proof.
// The circuits are defined in the following way:
//
// +------------+
// | MacroBlock |  BW6-761				<- native
// +------------+
//
// +------------+
// |  Wrapper   |  BLS12-377			<- native
// |            |  (BW6-761 inside)		<- inner
// +------------+
//
// +------------+
// |  Merger A  |  BLS12-377			<- native
// |            |  (BW6-761 inside)		<- inner
// +------------+
//
// +------------+  BW6-761				<- native
// |  Merger B  |  (BLS12-377 inside)	<- inner
// +------------+
//
// Every aggregate proof exposes the same public inputs:
// [GenesisStateCommitment, StateCommitment, Height, MergerADigest].
// Merger A embeds the verifying key of merger B as a constant, while merger B
// receives the verifying key of merger A as a witness and binds it to
// MergerADigest, which light clients compare with the digest of the key they
// trust. All public values are digests, below 2^248, so they are the same
// integer in the scalar fields of both curves.
