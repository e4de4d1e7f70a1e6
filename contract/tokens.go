package contract

import (
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// createTokenOwnerRecord opens an empty record so the owner can be delegated to or
// receive membership tokens before depositing.
// Accounts: [realm, owner, tokenOwnerRecord, mint, payer(s)]
func (p *Processor) createTokenOwnerRecord(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(5, "CreateTokenOwnerRecord"); err != nil {
		return err
	}
	realmAddr, owner, torAddr, mint, payer := accs.at(0), accs.at(1), accs.at(2), accs.at(3), accs.at(4)
	realm, err := load(ctx, realmAddr, dao.DecodeRealm)
	if err != nil {
		return err
	}
	if ok, _ := isRealmMint(realm, mint); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidGoverningMint, mint)
	}
	if err := requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}
	pa, err := expect(torAddr, "token owner record", ctx.ProgramID, tokenOwnerRecordSeeds(realmAddr, mint, owner)...)
	if err != nil {
		return err
	}
	tor := newTokenOwnerRecord(realmAddr, mint, owner)
	return createRecord(ctx, payer, pa, dao.EncodeTokenOwnerRecord(tor), 0)
}

func newTokenOwnerRecord(realm, mint, owner Address) *dao.TokenOwnerRecord {
	return &dao.TokenOwnerRecord{
		Realm:         realm,
		GoverningMint: mint,
		Owner:         owner,
		Version:       1,
	}
}

// depositGoverningTokens moves tokens into the realm holding and credits the owner's
// record, creating it on first deposit.
// Accounts: [realm, holding, source, owner(s), sourceAuthority(s), tokenOwnerRecord,
// payer(s), mint, realmConfig]
func (p *Processor) depositGoverningTokens(ctx *sdk.Context, accs accountList, ix dao.DepositGoverningTokens) error {
	if err := accs.need(9, "DepositGoverningTokens"); err != nil {
		return err
	}
	realmAddr, holding, source := accs.at(0), accs.at(1), accs.at(2)
	owner, sourceAuthority, torAddr := accs.at(3), accs.at(4), accs.at(5)
	payer, mint, configAddr := accs.at(6), accs.at(7), accs.at(8)

	if ix.Amount == 0 {
		return fmt.Errorf("%w: deposit of 0", ErrInvalidAmount)
	}
	realm, rc, err := loadRealmWithConfig(ctx, realmAddr, configAddr)
	if err != nil {
		return err
	}
	if ok, _ := isRealmMint(realm, mint); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidGoverningMint, mint)
	}
	if rc.TokenConfigFor(realm, mint).TokenType == dao.GoverningTokenDormant {
		return ErrCannotDepositDormantTokens
	}
	if err := requireSigner(ctx, owner, "governing token owner"); err != nil {
		return err
	}
	if _, err := expect(holding, "governing token holding", ctx.ProgramID, holdingSeeds(realmAddr, mint)...); err != nil {
		return err
	}
	torPA, err := expect(torAddr, "token owner record", ctx.ProgramID, tokenOwnerRecordSeeds(realmAddr, mint, owner)...)
	if err != nil {
		return err
	}

	if err := ctx.Invoke(sdk.NewTokenTransferInstruction(source, holding, sourceAuthority, ix.Amount)); err != nil {
		return fmt.Errorf("transfer to holding: %w", err)
	}

	ok, err := exists(ctx, torAddr)
	if err != nil {
		return err
	}
	var tor *dao.TokenOwnerRecord
	if ok {
		if tor, err = loadTokenOwnerRecordFor(ctx, torAddr, realmAddr, &mint); err != nil {
			return err
		}
	} else {
		tor = newTokenOwnerRecord(realmAddr, mint, owner)
	}
	if err := p.ledger.Deposit(tor, ix.Amount); err != nil {
		return err
	}
	if ok {
		err = saveTokenOwnerRecord(ctx, torAddr, tor)
	} else {
		if err := requireSigner(ctx, payer, "payer"); err != nil {
			return err
		}
		err = createRecord(ctx, payer, torPA, dao.EncodeTokenOwnerRecord(tor), 0)
	}
	if err != nil {
		return err
	}
	emitDepositEvent(ctx, torAddr, ix.Amount, tor.DepositAmount)
	return nil
}

// withdrawGoverningTokens returns the whole deposit once nothing is counted against it.
// Accounts: [realm, holding, destination, owner(s), tokenOwnerRecord, mint, realmConfig]
func (p *Processor) withdrawGoverningTokens(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(7, "WithdrawGoverningTokens"); err != nil {
		return err
	}
	realmAddr, holding, destination := accs.at(0), accs.at(1), accs.at(2)
	owner, torAddr, mint, configAddr := accs.at(3), accs.at(4), accs.at(5), accs.at(6)

	realm, rc, err := loadRealmWithConfig(ctx, realmAddr, configAddr)
	if err != nil {
		return err
	}
	if rc.TokenConfigFor(realm, mint).TokenType == dao.GoverningTokenMembership {
		return ErrCannotWithdrawMembershipTokens
	}
	if err := requireSigner(ctx, owner, "governing token owner"); err != nil {
		return err
	}
	if _, err := expect(holding, "governing token holding", ctx.ProgramID, holdingSeeds(realmAddr, mint)...); err != nil {
		return err
	}
	if _, err := expect(torAddr, "token owner record", ctx.ProgramID, tokenOwnerRecordSeeds(realmAddr, mint, owner)...); err != nil {
		return err
	}
	tor, err := loadTokenOwnerRecordFor(ctx, torAddr, realmAddr, &mint)
	if err != nil {
		return err
	}
	amount, err := p.ledger.Withdraw(tor)
	if err != nil {
		return err
	}
	if amount > 0 {
		realmPA, err := derive(ctx.ProgramID, realmSeeds(realm.Name)...)
		if err != nil {
			return err
		}
		ix := sdk.NewTokenTransferInstruction(holding, destination, realmAddr, amount)
		if err := ctx.Invoke(ix, realmPA.signerSeeds()); err != nil {
			return fmt.Errorf("transfer from holding: %w", err)
		}
	}
	if err := saveTokenOwnerRecord(ctx, torAddr, tor); err != nil {
		return err
	}
	emitWithdrawEvent(ctx, torAddr, amount)
	return nil
}

// revokeGoverningTokens burns membership tokens out of an owner's deposit. Either the
// mint authority or the owner may revoke.
// Accounts: [realm, holding, tokenOwnerRecord, mint, revokeAuthority(s), realmConfig]
func (p *Processor) revokeGoverningTokens(ctx *sdk.Context, accs accountList, ix dao.RevokeGoverningTokens) error {
	if err := accs.need(6, "RevokeGoverningTokens"); err != nil {
		return err
	}
	realmAddr, holding, torAddr := accs.at(0), accs.at(1), accs.at(2)
	mint, authority, configAddr := accs.at(3), accs.at(4), accs.at(5)

	if ix.Amount == 0 {
		return fmt.Errorf("%w: revoke of 0", ErrInvalidAmount)
	}
	realm, rc, err := loadRealmWithConfig(ctx, realmAddr, configAddr)
	if err != nil {
		return err
	}
	if ok, _ := isRealmMint(realm, mint); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidGoverningMint, mint)
	}
	if rc.TokenConfigFor(realm, mint).TokenType != dao.GoverningTokenMembership {
		return ErrCannotRevokeGoverningTokens
	}
	if _, err := expect(holding, "governing token holding", ctx.ProgramID, holdingSeeds(realmAddr, mint)...); err != nil {
		return err
	}
	tor, err := loadTokenOwnerRecordFor(ctx, torAddr, realmAddr, &mint)
	if err != nil {
		return err
	}
	m, err := sdk.LoadMint(ctx.State, mint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGoverningMint, err)
	}
	isMintAuthority := m.MintAuthority != nil && m.MintAuthority.Equals(authority)
	if !isMintAuthority && !tor.Owner.Equals(authority) {
		return fmt.Errorf("%w: %s", ErrInvalidRevokeAuthority, authority)
	}
	if err := requireSigner(ctx, authority, "revoke authority"); err != nil {
		return err
	}
	if err := p.ledger.Revoke(tor, ix.Amount); err != nil {
		return err
	}
	realmPA, err := derive(ctx.ProgramID, realmSeeds(realm.Name)...)
	if err != nil {
		return err
	}
	if err := ctx.Invoke(sdk.NewBurnInstruction(holding, mint, realmAddr, ix.Amount), realmPA.signerSeeds()); err != nil {
		return fmt.Errorf("burn from holding: %w", err)
	}
	if err := saveTokenOwnerRecord(ctx, torAddr, tor); err != nil {
		return err
	}
	emitRevokeEvent(ctx, torAddr, ix.Amount)
	return nil
}

// setGovernanceDelegate lets the owner, or the current delegate, name who may act for
// the record.
// Accounts: [ownerOrDelegate(s), tokenOwnerRecord]
func (p *Processor) setGovernanceDelegate(ctx *sdk.Context, accs accountList, ix dao.SetGovernanceDelegate) error {
	if err := accs.need(2, "SetGovernanceDelegate"); err != nil {
		return err
	}
	authority, torAddr := accs.at(0), accs.at(1)
	tor, err := load(ctx, torAddr, dao.DecodeTokenOwnerRecord)
	if err != nil {
		return err
	}
	if err := requireOwnerOrDelegate(ctx, tor, authority); err != nil {
		return err
	}
	p.ledger.Delegate(tor, ix.NewDelegate)
	if err := saveTokenOwnerRecord(ctx, torAddr, tor); err != nil {
		return err
	}
	emitDelegateEvent(ctx, torAddr, tor.GovernanceDelegate)
	return nil
}
