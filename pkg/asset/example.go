package asset

import "time"

// Example returns a fully populated, non-public asset describing a Solidity
// reentrancy audit memory. It is used in documentation and tests.
func Example() *MemoryAsset {
	return New(
		Identification{
			Name:        "Expert Solidity Audit Patterns - Reentrancy",
			Description: "High-fidelity latent memory for detecting complex reentrancy patterns in EVM smart contracts. Trained on 10,000+ audited contracts.",
			Version:     "1.0.2",
			ID:          "memory-001",
		},
		LatentSpec{
			ModelOrigin:          "llama-3-70b",
			LatentDimension:      4096,
			WMatrixVersion:       WMatrixV1Standard,
			AlignmentLossEpsilon: 0.0042,
			CompressionType:      CompressionNone,
			KVCacheLayers:        Ptr(80),
			OriginalTokenCount:   Ptr(128000),
		},
		SemanticContext{
			Keywords:      []string{"solidity", "security", "audit", "reentrancy", "smart-contract", "evm", "vulnerability"},
			Domain:        DomainBlockchainSecurity,
			TaskType:      TaskReasoningAndAnalysis,
			Tags:          []string{"defi", "ethereum", "layer2"},
			AIDescription: "This memory capsule contains expert-level reasoning patterns for identifying reentrancy vulnerabilities in Solidity smart contracts. It can detect both classic and cross-function reentrancy attacks.",
		},
		AccessControl{
			IsPublic:         false,
			EncryptedCID:     "ipfs://QmXoyp1234567890abcdef",
			PricePerCall:     "0.5 AMEM",
			OwnerAgentTBA:    "0x742d35Cc6634C0532925a3b844Bc9e7595f5e123",
			SubscriptionTier: TierPro,
		},
		Provenance{
			CreatedAt:     time.Date(2026, time.January, 2, 10, 0, 0, 0, time.UTC),
			UsageCount:    1240,
			AverageRating: Ptr(4.8),
			RatingCount:   Ptr(156),
		},
	)
}
